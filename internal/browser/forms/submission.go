// internal/browser/forms/submission.go
package forms

import (
	"github.com/xkilldash9x/formctl/internal/browser/dom"
)

// Entry is one name/value pair of a form data set. File entries carry a
// filename and no content.
type Entry struct {
	Name     string
	Value    string
	Filename string
	IsFile   bool
}

// EntryList is an ordered form data set.
type EntryList struct {
	entries []Entry
}

// Append adds a text entry.
func (l *EntryList) Append(name, value string) {
	l.entries = append(l.entries, Entry{Name: name, Value: value})
}

// AppendFile adds a file entry.
func (l *EntryList) AppendFile(name, filename string) {
	l.entries = append(l.entries, Entry{Name: name, Filename: filename, IsFile: true})
}

// Len returns the number of entries.
func (l *EntryList) Len() int { return len(l.entries) }

// Entries returns a copy of the entries in order.
func (l *EntryList) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Get returns the value of the first entry named name.
func (l *EntryList) Get(name string) (string, bool) {
	for _, e := range l.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// Submission is everything a navigator needs to perform a form submission.
type Submission struct {
	Form      *Form
	Submitter *dom.Node

	Action  string
	Method  string
	Enctype string
	Entries []Entry
}

// BuildSubmission constructs the form data set and resolves the target of a
// submission triggered by submitter, which may be nil. The submitter's
// formaction, formmethod and formenctype attributes override the form's own.
func (f *Form) BuildSubmission(submitter *dom.Node) *Submission {
	s := &Submission{
		Form:      f,
		Submitter: submitter,
		Action:    f.Action(),
		Method:    f.Method(),
		Enctype:   f.Enctype(),
	}
	if submitter != nil {
		if action, ok := f.submitterAction(submitter); ok {
			s.Action = action
		}
		if method, ok := formMethodAttr.Lookup(submitter); ok {
			s.Method = method
		}
		if enctype, ok := formEnctypeAttr.Lookup(submitter); ok {
			s.Enctype = enctype
		}
	}

	var list EntryList
	for _, n := range f.SubmittableElements() {
		if c, ok := n.Behavior().(EntryContributor); ok {
			c.AppendEntries(&list, submitter)
		}
	}
	s.Entries = list.Entries()
	return s
}
