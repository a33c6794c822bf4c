// internal/browser/forms/capabilities.go
package forms

import "github.com/xkilldash9x/formctl/internal/browser/dom"

// FormOwnerChanger is implemented by form-associable behaviors that track
// their owning form. form is nil when the control has no owner.
type FormOwnerChanger interface {
	FormOwnerChanged(form *Form)
}

// Validator reports whether a control satisfies its constraints.
type Validator interface {
	CheckValidity() bool
}

// Resetter restores a control to its default state.
type Resetter interface {
	FormReset()
}

// Focuser moves focus to a control and reports whether it took focus.
type Focuser interface {
	Focus() bool
}

// EntryContributor appends a control's entries to a form data set.
// submitter is the button that triggered submission, or nil.
type EntryContributor interface {
	AppendEntries(list *EntryList, submitter *dom.Node)
}
