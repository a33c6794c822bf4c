// internal/browser/forms/action.go
package forms

import (
	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"go.uber.org/zap"
)

// Action returns the absolute URL the form submits to. An absent or empty
// action attribute yields the document URL unchanged.
func (f *Form) Action() string {
	return f.resolveAction(f.node.AttributeOr("action", ""))
}

// SetAction writes the action attribute verbatim.
func (f *Form) SetAction(v string) {
	f.node.SetAttribute("action", v)
}

func (f *Form) resolveAction(raw string) string {
	doc := f.node.OwnerDocument()
	if doc == nil {
		return raw
	}
	if raw == "" {
		return doc.URL()
	}
	resolved, err := doc.ResolveURL(raw)
	if err != nil {
		f.logger.Debug("Could not resolve form action", zap.String("action", raw), zap.Error(err))
		return raw
	}
	return resolved
}

// submitterAction returns the formaction override of submitter, if it has one.
func (f *Form) submitterAction(submitter *dom.Node) (string, bool) {
	if submitter == nil {
		return "", false
	}
	v, ok := submitter.GetAttribute("formaction")
	if !ok || v == "" {
		return "", false
	}
	return f.resolveAction(v), true
}
