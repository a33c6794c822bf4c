// internal/browser/jsbind/element.go
package jsbind

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"github.com/xkilldash9x/formctl/internal/browser/forms"
)

// nodeKey is the hidden property holding the Go node behind a wrapper.
const nodeKey = "__go_node__"

// WrapNode returns the JS object for n, creating it on first use. A nil
// node maps to null.
func (b *DOMBridge) WrapNode(n *dom.Node) goja.Value {
	if n == nil {
		return goja.Null()
	}
	if obj, ok := b.wrappers[n]; ok {
		return obj
	}

	obj := b.vm.NewObject()
	b.wrappers[n] = obj
	if err := obj.DefineDataProperty(nodeKey, b.vm.ToValue(n), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
		b.logger.Error("Failed to tag wrapper", zap.Error(err))
	}

	_ = obj.Set("nodeName", n.NodeName())
	b.defineAccessor(obj, "parentNode", func() goja.Value { return b.WrapNode(n.Parent()) }, nil)
	b.defineAccessor(obj, "textContent",
		func() goja.Value { return b.vm.ToValue(n.TextContent()) },
		func(v goja.Value) { n.SetTextContent(v.String()) })

	if n.IsElement() {
		b.bindElement(obj, n)
	}
	if c := forms.ControlFromNode(n); c != nil {
		b.bindControl(obj, c)
	}
	if f := forms.FromNode(n); f != nil {
		b.bindForm(obj, f)
	}
	return obj
}

func (b *DOMBridge) wrapNodeList(nodes []*dom.Node) goja.Value {
	wrapped := make([]any, len(nodes))
	for i, n := range nodes {
		wrapped[i] = b.WrapNode(n)
	}
	return b.vm.NewArray(wrapped...)
}

// unwrapNode recovers the Go node behind a wrapper.
func (b *DOMBridge) unwrapNode(v goja.Value) (*dom.Node, error) {
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return nil, fmt.Errorf("node is null or undefined")
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("value is not an object")
	}
	if tagged := obj.Get(nodeKey); tagged != nil {
		if n, ok := tagged.Export().(*dom.Node); ok {
			return n, nil
		}
	}
	return nil, fmt.Errorf("value is not a recognized DOM node wrapper")
}

func (b *DOMBridge) bindElement(obj *goja.Object, n *dom.Node) {
	_ = obj.Set("tagName", strings.ToUpper(n.LocalName()))
	b.reflectAttribute(obj, n, "id")
	b.reflectAttribute(obj, n, "name")
	b.reflectAttribute(obj, n, "className", "class")
	b.defineAccessor(obj, "outerHTML", func() goja.Value { return b.vm.ToValue(dom.OuterHTML(n)) }, nil)

	_ = obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if v, ok := n.GetAttribute(call.Argument(0).String()); ok {
			return b.vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		n.SetAttribute(call.Argument(0).String(), call.Argument(1).String())
		return goja.Undefined()
	})
	_ = obj.Set("removeAttribute", func(call goja.FunctionCall) goja.Value {
		n.RemoveAttribute(call.Argument(0).String())
		return goja.Undefined()
	})
	_ = obj.Set("hasAttribute", func(call goja.FunctionCall) goja.Value {
		return b.vm.ToValue(n.HasAttribute(call.Argument(0).String()))
	})

	_ = obj.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		child, err := b.unwrapNode(call.Argument(0))
		if err != nil {
			panic(b.vm.NewTypeError("appendChild: invalid argument: %v", err))
		}
		if err := n.AppendChild(child); err != nil {
			b.throwDOMError("appendChild", err)
		}
		return call.Argument(0)
	})
	_ = obj.Set("removeChild", func(call goja.FunctionCall) goja.Value {
		child, err := b.unwrapNode(call.Argument(0))
		if err != nil {
			panic(b.vm.NewTypeError("removeChild: invalid argument: %v", err))
		}
		if err := n.RemoveChild(child); err != nil {
			b.throwDOMError("removeChild", err)
		}
		return call.Argument(0)
	})
	_ = obj.Set("remove", func(goja.FunctionCall) goja.Value {
		n.Remove()
		return goja.Undefined()
	})
	_ = obj.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		return b.WrapNode(b.queryOne(n, call.Argument(0).String()))
	})

	_ = obj.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			return goja.Undefined()
		}
		var opts dom.ListenerOptions
		if o, isObj := call.Argument(2).(*goja.Object); isObj {
			opts.Capture = o.Get("capture") != nil && o.Get("capture").ToBoolean()
			opts.Once = o.Get("once") != nil && o.Get("once").ToBoolean()
		} else if arg := call.Argument(2); !goja.IsUndefined(arg) {
			opts.Capture = arg.ToBoolean()
		}
		eventType := call.Argument(0).String()
		n.AddEventListener(eventType, func(ev *dom.Event) {
			if _, err := fn(obj, b.wrapEvent(ev)); err != nil {
				b.logger.Error("Event listener threw", zap.String("event", eventType), zap.Error(err))
			}
		}, opts)
		return goja.Undefined()
	})
	_ = obj.Set("dispatchEvent", func(call goja.FunctionCall) goja.Value {
		evObj, ok := call.Argument(0).(*goja.Object)
		if !ok || evObj.Get("type") == nil {
			panic(b.vm.NewTypeError("dispatchEvent: argument is not an event"))
		}
		init := dom.EventInit{
			Bubbles:    evObj.Get("bubbles") != nil && evObj.Get("bubbles").ToBoolean(),
			Cancelable: evObj.Get("cancelable") != nil && evObj.Get("cancelable").ToBoolean(),
		}
		return b.vm.ToValue(n.DispatchEvent(b.doc.CreateEvent(evObj.Get("type").String(), init)))
	})
}

// reflectAttribute exposes a content attribute as a string property.
func (b *DOMBridge) reflectAttribute(obj *goja.Object, n *dom.Node, prop string, attr ...string) {
	name := prop
	if len(attr) > 0 {
		name = attr[0]
	}
	b.defineAccessor(obj, prop,
		func() goja.Value { return b.vm.ToValue(n.AttributeOr(name, "")) },
		func(v goja.Value) { n.SetAttribute(name, v.String()) })
}

func (b *DOMBridge) bindControl(obj *goja.Object, c *forms.Control) {
	b.defineAccessor(obj, "value",
		func() goja.Value { return b.vm.ToValue(c.Value()) },
		func(v goja.Value) { c.SetValue(v.String()) })
	b.defineAccessor(obj, "checked",
		func() goja.Value { return b.vm.ToValue(c.Checked()) },
		func(v goja.Value) { c.SetChecked(v.ToBoolean()) })
	b.defineAccessor(obj, "type", func() goja.Value { return b.vm.ToValue(c.Type()) }, nil)
	b.defineAccessor(obj, "disabled", func() goja.Value { return b.vm.ToValue(c.Disabled()) }, nil)
	b.defineAccessor(obj, "willValidate", func() goja.Value { return b.vm.ToValue(c.WillValidate()) }, nil)
	b.defineAccessor(obj, "validationMessage", func() goja.Value { return b.vm.ToValue(c.ValidationMessage()) }, nil)
	b.defineAccessor(obj, "form", func() goja.Value {
		if f := c.Form(); f != nil {
			return b.WrapNode(f.Node())
		}
		return goja.Null()
	}, nil)

	_ = obj.Set("checkValidity", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(c.CheckValidityAndNotify())
	})
	_ = obj.Set("setCustomValidity", func(call goja.FunctionCall) goja.Value {
		c.SetCustomValidity(call.Argument(0).String())
		return goja.Undefined()
	})
	_ = obj.Set("focus", func(goja.FunctionCall) goja.Value {
		c.Focus()
		return goja.Undefined()
	})
	_ = obj.Set("click", func(goja.FunctionCall) goja.Value {
		if err := c.Click(b.ctx); err != nil {
			b.logger.Warn("Activation failed", zap.Error(err))
		}
		return goja.Undefined()
	})
}

func (b *DOMBridge) bindForm(obj *goja.Object, f *forms.Form) {
	b.defineAccessor(obj, "length", func() goja.Value { return b.vm.ToValue(f.Length()) }, nil)
	b.defineAccessor(obj, "elements", func() goja.Value { return b.wrapNodeList(f.Elements().Slice()) }, nil)
	b.defineAccessor(obj, "method",
		func() goja.Value { return b.vm.ToValue(f.Method()) },
		func(v goja.Value) { f.SetMethod(v.String()) })
	b.defineAccessor(obj, "enctype",
		func() goja.Value { return b.vm.ToValue(f.Enctype()) },
		func(v goja.Value) { f.SetEnctype(v.String()) })
	b.defineAccessor(obj, "action",
		func() goja.Value { return b.vm.ToValue(f.Action()) },
		func(v goja.Value) { f.SetAction(v.String()) })

	_ = obj.Set("checkValidity", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(f.CheckValidity().Valid)
	})
	_ = obj.Set("reportValidity", func(goja.FunctionCall) goja.Value {
		return b.vm.ToValue(f.ReportValidity().Valid)
	})
	_ = obj.Set("reset", func(goja.FunctionCall) goja.Value {
		f.Reset()
		return goja.Undefined()
	})
	_ = obj.Set("submit", func(goja.FunctionCall) goja.Value {
		if err := f.Submit(b.ctx); err != nil {
			panic(b.vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	_ = obj.Set("requestSubmit", func(call goja.FunctionCall) goja.Value {
		var submitter *dom.Node
		if arg := call.Argument(0); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
			n, err := b.unwrapNode(arg)
			if err != nil {
				panic(b.vm.NewTypeError("requestSubmit: invalid submitter: %v", err))
			}
			submitter = n
		}
		if _, err := f.RequestSubmit(b.ctx, submitter); err != nil {
			panic(b.vm.NewGoError(err))
		}
		return goja.Undefined()
	})
}

// wrapEvent exposes ev to scripts. Properties read the live event state.
func (b *DOMBridge) wrapEvent(ev *dom.Event) *goja.Object {
	obj := b.vm.NewObject()
	_ = obj.Set("type", ev.Type())
	_ = obj.Set("bubbles", ev.Bubbles())
	_ = obj.Set("cancelable", ev.Cancelable())
	_ = obj.Set("isTrusted", ev.IsTrusted)
	b.defineAccessor(obj, "defaultPrevented", func() goja.Value { return b.vm.ToValue(ev.DefaultPrevented()) }, nil)
	b.defineAccessor(obj, "eventPhase", func() goja.Value { return b.vm.ToValue(int(ev.Phase())) }, nil)
	b.defineAccessor(obj, "target", func() goja.Value { return b.WrapNode(ev.Target()) }, nil)
	b.defineAccessor(obj, "currentTarget", func() goja.Value { return b.WrapNode(ev.CurrentTarget()) }, nil)

	_ = obj.Set("preventDefault", func(goja.FunctionCall) goja.Value {
		ev.PreventDefault()
		return goja.Undefined()
	})
	_ = obj.Set("stopPropagation", func(goja.FunctionCall) goja.Value {
		ev.StopPropagation()
		return goja.Undefined()
	})
	_ = obj.Set("stopImmediatePropagation", func(goja.FunctionCall) goja.Value {
		ev.StopImmediatePropagation()
		return goja.Undefined()
	})
	return obj
}
