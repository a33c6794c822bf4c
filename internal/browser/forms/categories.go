// internal/browser/forms/categories.go
package forms

import (
	"strings"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"golang.org/x/net/html/atom"
)

// listedElements participate in form bookkeeping and appear in form.elements.
var listedElements = map[atom.Atom]bool{
	atom.Button:   true,
	atom.Fieldset: true,
	atom.Input:    true,
	atom.Keygen:   true,
	atom.Object:   true,
	atom.Output:   true,
	atom.Select:   true,
	atom.Textarea: true,
}

// submittableElements are the listed elements that take part in submission and validation.
var submittableElements = map[atom.Atom]bool{
	atom.Button:   true,
	atom.Input:    true,
	atom.Keygen:   true,
	atom.Object:   true,
	atom.Select:   true,
	atom.Textarea: true,
}

// IsListed reports whether n belongs to the listed category exposed by
// Form.Elements. Image buttons are excluded from that collection.
func IsListed(n *dom.Node) bool {
	if n == nil || !n.IsElement() || !listedElements[n.DataAtom()] {
		return false
	}
	return !isImageButton(n)
}

// IsSubmittable reports whether n belongs to the submittable subset of the listed category.
func IsSubmittable(n *dom.Node) bool {
	return IsListed(n) && submittableElements[n.DataAtom()]
}

// IsFormAssociable reports whether n can have a form owner.
func IsFormAssociable(n *dom.Node) bool {
	return n != nil && n.IsElement() && (listedElements[n.DataAtom()] || n.Is(atom.Img))
}

func isImageButton(n *dom.Node) bool {
	return n.Is(atom.Input) && strings.EqualFold(strings.TrimSpace(n.AttributeOr("type", "")), "image")
}
