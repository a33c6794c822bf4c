// internal/browser/jsbind/handlers.go
package jsbind

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
)

// HandlerEvents lists the events whose on* content attributes are compiled
// by BindInlineHandlers.
var HandlerEvents = []string{"submit", "reset", "invalid", "focus", "blur", "click", "change", "input"}

// BindInlineHandlers compiles every supported on* attribute in the document
// and registers it as a listener. It returns the number of handlers bound
// and the joined compile errors of the ones that were skipped.
func (b *DOMBridge) BindInlineHandlers() (int, error) {
	var errs []error
	bound := 0
	for n := range dom.Descendants(b.doc.Root()) {
		if !n.IsElement() {
			continue
		}
		for _, eventType := range HandlerEvents {
			body, ok := n.GetAttribute("on" + eventType)
			if !ok || strings.TrimSpace(body) == "" {
				continue
			}
			if err := b.BindHandler(n, eventType, body); err != nil {
				errs = append(errs, err)
				continue
			}
			bound++
		}
	}
	b.logger.Debug("Inline handlers bound", zap.Int("count", bound), zap.Int("failed", len(errs)))
	return bound, errors.Join(errs...)
}

// BindHandler compiles body as the handler of eventType on n. The handler
// runs with this set to the element and receives the event as its only
// argument. Returning false cancels the event. Exceptions are logged and
// do not interrupt dispatch.
func (b *DOMBridge) BindHandler(n *dom.Node, eventType, body string) error {
	source := handlerSource(n, eventType)
	program, err := goja.Compile(source, "(function (event) {\n"+body+"\n})", false)
	if err != nil {
		return &ScriptError{Source: source, Err: err}
	}
	v, err := b.vm.RunProgram(program)
	if err != nil {
		return &ScriptError{Source: source, Err: err}
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return &ScriptError{Source: source, Err: fmt.Errorf("handler did not evaluate to a function")}
	}

	this := b.WrapNode(n)
	n.AddEventListener(eventType, func(ev *dom.Event) {
		result, err := fn(this, b.wrapEvent(ev))
		if err != nil {
			b.logger.Error("Inline handler threw", zap.String("handler", source), zap.Error(err))
			return
		}
		if result != nil && result.Export() == false {
			ev.PreventDefault()
		}
	})
	return nil
}

// handlerSource names a handler after its element, e.g. form#login.onsubmit.
func handlerSource(n *dom.Node, eventType string) string {
	var sb strings.Builder
	sb.WriteString(n.LocalName())
	if id := n.AttributeOr("id", ""); id != "" {
		sb.WriteString("#" + id)
	} else if name := n.AttributeOr("name", ""); name != "" {
		sb.WriteString("[name=" + name + "]")
	}
	sb.WriteString(".on" + eventType)
	return sb.String()
}
