// internal/browser/forms/form.go
package forms

import (
	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"go.uber.org/zap"
	"golang.org/x/net/html/atom"
)

// Option configures a Form.
type Option func(*Form)

// WithInvalidEventPolicy selects how cancelled invalid events affect the
// result of static validation.
func WithInvalidEventPolicy(p InvalidEventPolicy) Option {
	return func(f *Form) {
		f.invalidPolicy = p
	}
}

// WithInteractiveMode selects the behavior of interactive validation when
// the form is invalid.
func WithInteractiveMode(m InteractiveMode) Option {
	return func(f *Form) {
		f.interactive = m
	}
}

// WithNavigator sets the collaborator that performs submissions.
func WithNavigator(nav Navigator) Option {
	return func(f *Form) {
		f.navigator = nav
	}
}

// Form is the behavior of a form element. It owns no control state of its
// own; membership is derived from the tree on every access.
type Form struct {
	node   *dom.Node
	logger *zap.Logger

	invalidPolicy InvalidEventPolicy
	interactive   InteractiveMode
	navigator     Navigator

	state ValidationState
}

// NewForm creates the behavior for the form element n. The caller attaches
// it with n.SetBehavior, or lets a factory returned by Behaviors do so.
func NewForm(n *dom.Node, opts ...Option) *Form {
	logger := zap.NewNop()
	if doc := n.OwnerDocument(); doc != nil {
		logger = doc.Logger()
	}
	f := &Form{
		node:          n,
		logger:        logger.Named("forms"),
		invalidPolicy: InvalidEventsExcludeCancelled,
		interactive:   InteractiveFocusFirst,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FromNode returns the form behavior attached to n, or nil.
func FromNode(n *dom.Node) *Form {
	if n == nil {
		return nil
	}
	f, _ := n.Behavior().(*Form)
	return f
}

// Node returns the form element.
func (f *Form) Node() *dom.Node { return f.node }

// State returns the state of the most recent validation run.
func (f *Form) State() ValidationState { return f.state }

// Behaviors returns a factory that attaches a Form to form elements and a
// Control to form-associable elements. opts apply to every created form.
func Behaviors(opts ...Option) dom.BehaviorFactory {
	return func(n *dom.Node) any {
		switch {
		case n.Is(atom.Form):
			return NewForm(n, opts...)
		case IsFormAssociable(n):
			return NewControl(n)
		}
		return nil
	}
}

// nearestForm returns the closest form element that is n itself or one of its ancestors.
func nearestForm(n *dom.Node) *dom.Node {
	if n.Is(atom.Form) {
		return n
	}
	return n.ClosestAncestor(isFormElement)
}

func isFormElement(n *dom.Node) bool { return n.Is(atom.Form) }

// newEvent creates an event through n's document when it has one.
func newEvent(n *dom.Node, eventType string, init dom.EventInit) *dom.Event {
	if doc := n.OwnerDocument(); doc != nil {
		return doc.CreateEvent(eventType, init)
	}
	return dom.NewEvent(eventType, init)
}

// DescendantAdded notifies every node of the inserted subtree, in tree
// order, that this form now owns it. Nodes beneath a nested form stay with
// the nearer form.
func (f *Form) DescendantAdded(parent, child *dom.Node) {
	for n := range dom.TreeIterator(child) {
		if n.ClosestAncestor(isFormElement) != f.node {
			continue
		}
		if c, ok := n.Behavior().(FormOwnerChanger); ok {
			c.FormOwnerChanged(f)
		}
	}
	f.node.BaseDescendantAdded(parent, child)
}

// DescendantRemoved notifies every node of the removed subtree, in tree
// order, that it no longer has a form owner. Only the form nearest to the
// removal point notifies, and nodes beneath a form inside the removed
// subtree keep that form.
func (f *Form) DescendantRemoved(parent, child *dom.Node) {
	if nearestForm(parent) == f.node {
		for n := range dom.TreeIterator(child) {
			if n != child && n.ClosestAncestor(isFormElement) != nil {
				continue
			}
			if c, ok := n.Behavior().(FormOwnerChanger); ok {
				c.FormOwnerChanged(nil)
			}
		}
	}
	f.node.BaseDescendantRemoved(parent, child)
}

// Elements returns the live collection of the form's listed controls in
// tree order. Elements from another document are never included.
func (f *Form) Elements() *dom.Collection {
	doc := f.node.OwnerDocument()
	return dom.NewCollection(f.node, func(n *dom.Node) bool {
		return IsListed(n) && n.OwnerDocument() == doc
	})
}

// Length returns the number of listed controls.
func (f *Form) Length() int {
	return f.Elements().Len()
}

// SubmittableElements returns a snapshot of the submittable controls in tree order.
func (f *Form) SubmittableElements() []*dom.Node {
	var out []*dom.Node
	for _, n := range f.Elements().All() {
		if IsSubmittable(n) {
			out = append(out, n)
		}
	}
	return out
}
