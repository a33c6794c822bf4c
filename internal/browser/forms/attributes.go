// internal/browser/forms/attributes.go
package forms

import (
	"slices"
	"strings"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
)

// Canonical keywords of the method and enctype attributes.
const (
	MethodGet    = "get"
	MethodPost   = "post"
	MethodDialog = "dialog"

	EnctypeURLEncoded = "application/x-www-form-urlencoded"
	EnctypeMultipart  = "multipart/form-data"
	EnctypeTextPlain  = "text/plain"
)

// EnumeratedAttribute reads a content attribute that is limited to a fixed
// set of keywords. Reads normalize to lower case and fall back to Default;
// writes store the value verbatim.
type EnumeratedAttribute struct {
	Name    string
	Allowed []string
	Default string
}

var (
	methodAttr = EnumeratedAttribute{
		Name:    "method",
		Allowed: []string{MethodGet, MethodPost, MethodDialog},
		Default: MethodGet,
	}
	enctypeAttr = EnumeratedAttribute{
		Name:    "enctype",
		Allowed: []string{EnctypeURLEncoded, EnctypeMultipart, EnctypeTextPlain},
		Default: EnctypeURLEncoded,
	}
	formMethodAttr  = EnumeratedAttribute{Name: "formmethod", Allowed: methodAttr.Allowed, Default: MethodGet}
	formEnctypeAttr = EnumeratedAttribute{Name: "formenctype", Allowed: enctypeAttr.Allowed, Default: EnctypeURLEncoded}
)

// Get returns the normalized keyword stored on n, or Default when the
// attribute is missing or holds an unknown value.
func (a EnumeratedAttribute) Get(n *dom.Node) string {
	v, ok := n.GetAttribute(a.Name)
	if !ok {
		return a.Default
	}
	v = strings.ToLower(v)
	if slices.Contains(a.Allowed, v) {
		return v
	}
	return a.Default
}

// Lookup is Get without the fallback. ok is false when the attribute is
// missing or invalid.
func (a EnumeratedAttribute) Lookup(n *dom.Node) (string, bool) {
	v, present := n.GetAttribute(a.Name)
	if !present {
		return "", false
	}
	v = strings.ToLower(v)
	return v, slices.Contains(a.Allowed, v)
}

// Set writes value to n without validation.
func (a EnumeratedAttribute) Set(n *dom.Node, value string) {
	n.SetAttribute(a.Name, value)
}

// Method returns the submission method: get, post or dialog.
func (f *Form) Method() string { return methodAttr.Get(f.node) }

// SetMethod writes the method attribute verbatim.
func (f *Form) SetMethod(v string) { methodAttr.Set(f.node, v) }

// Enctype returns the submission encoding type.
func (f *Form) Enctype() string { return enctypeAttr.Get(f.node) }

// SetEnctype writes the enctype attribute verbatim.
func (f *Form) SetEnctype(v string) { enctypeAttr.Set(f.node, v) }
