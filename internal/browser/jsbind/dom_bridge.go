// internal/browser/jsbind/dom_bridge.go
package jsbind

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
)

// Option configures a DOMBridge.
type Option func(*DOMBridge)

// WithContext sets the context passed to form submissions started from scripts.
func WithContext(ctx context.Context) Option {
	return func(b *DOMBridge) {
		if ctx != nil {
			b.ctx = ctx
		}
	}
}

// DOMBridge connects a goja runtime to a document. Like the document it
// serves, a bridge is owned by a single goroutine.
type DOMBridge struct {
	vm     *goja.Runtime
	logger *zap.Logger
	doc    *dom.Document
	ctx    context.Context

	// wrappers keeps one JS object per node so identity comparisons hold in scripts.
	wrappers map[*dom.Node]*goja.Object
	document *goja.Object
}

// NewDOMBridge creates a runtime for doc and installs the document,
// window and console globals.
func NewDOMBridge(doc *dom.Document, logger *zap.Logger, opts ...Option) *DOMBridge {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &DOMBridge{
		vm:       goja.New(),
		logger:   logger.Named("dom_bridge"),
		doc:      doc,
		ctx:      context.Background(),
		wrappers: make(map[*dom.Node]*goja.Object),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.initializeRuntime()
	return b
}

// Runtime exposes the underlying goja runtime.
func (b *DOMBridge) Runtime() *goja.Runtime { return b.vm }

func (b *DOMBridge) initializeRuntime() {
	global := b.vm.GlobalObject()

	b.document = b.newDocumentObject()
	if err := global.Set("document", b.document); err != nil {
		b.logger.Error("Failed to set 'document' global", zap.Error(err))
	}

	window := b.vm.NewObject()
	_ = window.Set("document", b.document)
	_ = window.Set("location", b.doc.URL())
	_ = window.Set("alert", func(call goja.FunctionCall) goja.Value {
		b.logger.Info("[JS Alert]", zap.String("message", call.Argument(0).String()))
		return goja.Undefined()
	})
	if err := global.Set("window", window); err != nil {
		b.logger.Error("Failed to set 'window' global", zap.Error(err))
	}

	b.initConsole()
}

// RunScript evaluates src in the global scope.
func (b *DOMBridge) RunScript(name, src string) (goja.Value, error) {
	program, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, &ScriptError{Source: name, Err: err}
	}
	v, err := b.vm.RunProgram(program)
	if err != nil {
		return nil, &ScriptError{Source: name, Err: err}
	}
	return v, nil
}

// -- Document object --

func (b *DOMBridge) newDocumentObject() *goja.Object {
	d := b.vm.NewObject()
	_ = d.Set("URL", b.doc.URL())
	b.defineAccessor(d, "body", func() goja.Value { return b.WrapNode(b.doc.Body()) }, nil)
	b.defineAccessor(d, "activeElement", func() goja.Value { return b.WrapNode(b.doc.ActiveElement()) }, nil)
	b.defineAccessor(d, "forms", func() goja.Value {
		nodes, _ := b.doc.Root().QueryAll("//form")
		return b.wrapNodeList(nodes)
	}, nil)

	_ = d.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		return b.WrapNode(b.doc.GetElementByID(call.Argument(0).String()))
	})
	_ = d.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		return b.WrapNode(b.queryOne(b.doc.Root(), call.Argument(0).String()))
	})
	_ = d.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		return b.wrapNodeList(b.queryAll(b.doc.Root(), call.Argument(0).String()))
	})
	_ = d.Set("createElement", func(call goja.FunctionCall) goja.Value {
		return b.WrapNode(b.doc.CreateElement(call.Argument(0).String()))
	})
	return d
}

func (b *DOMBridge) queryAll(root *dom.Node, selector string) []*dom.Node {
	nodes, err := root.QueryAll(SelectorToXPath(selector))
	if err != nil {
		panic(b.vm.NewGoError(fmt.Errorf("invalid selector: %s", selector)))
	}
	return nodes
}

func (b *DOMBridge) queryOne(root *dom.Node, selector string) *dom.Node {
	for _, n := range b.queryAll(root, selector) {
		if n != root {
			return n
		}
	}
	return nil
}

// -- Console --

// initConsole routes console output to the bridge logger.
func (b *DOMBridge) initConsole() {
	console := b.vm.NewObject()
	logFunc := func(level zapcore.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = b.stringify(arg)
			}
			b.logger.Log(level, "[JS Console]", zap.String("message", strings.Join(args, " ")))
			return goja.Undefined()
		}
	}

	_ = console.Set("log", logFunc(zapcore.InfoLevel))
	_ = console.Set("info", logFunc(zapcore.InfoLevel))
	_ = console.Set("warn", logFunc(zapcore.WarnLevel))
	_ = console.Set("error", logFunc(zapcore.ErrorLevel))
	_ = console.Set("debug", logFunc(zapcore.DebugLevel))

	if err := b.vm.GlobalObject().Set("console", console); err != nil {
		b.logger.Error("Failed to set 'console' global", zap.Error(err))
	}
}

// stringify renders plain objects and arrays as JSON and everything else as text.
func (b *DOMBridge) stringify(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	if _, isObject := v.(*goja.Object); isObject {
		if _, isFunc := goja.AssertFunction(v); !isFunc {
			if jsJSON := b.vm.Get("JSON"); jsJSON != nil {
				if stringify, ok := goja.AssertFunction(jsJSON.ToObject(b.vm).Get("stringify")); ok {
					if result, err := stringify(goja.Undefined(), v); err == nil && !goja.IsUndefined(result) {
						return result.String()
					}
				}
			}
		}
	}
	return v.String()
}

// -- Helpers --

// defineAccessor installs a getter and an optional setter for name on obj.
func (b *DOMBridge) defineAccessor(obj *goja.Object, name string, getter func() goja.Value, setter func(goja.Value)) {
	getterFunc := b.vm.ToValue(func(goja.FunctionCall) goja.Value {
		return getter()
	})
	setterFunc := goja.Undefined()
	if setter != nil {
		setterFunc = b.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			setter(call.Argument(0))
			return goja.Undefined()
		})
	}
	if err := obj.DefineAccessorProperty(name, getterFunc, setterFunc, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		b.logger.Error("Failed to define accessor", zap.String("property", name), zap.Error(err))
	}
}

// throwDOMError raises err inside the running script.
func (b *DOMBridge) throwDOMError(op string, err error) {
	panic(b.vm.NewGoError(fmt.Errorf("%s: %w", op, err)))
}
