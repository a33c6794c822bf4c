// internal/browser/forms/submit.go
package forms

import (
	"context"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"go.uber.org/zap"
)

// Navigator performs the network side of a submission.
type Navigator interface {
	Navigate(ctx context.Context, s *Submission) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, s *Submission) error

// Navigate calls fn.
func (fn NavigatorFunc) Navigate(ctx context.Context, s *Submission) error {
	return fn(ctx, s)
}

// DispatchSubmitEvent fires a bubbling, cancelable submit event at the form
// and submits unless a listener cancelled it. submitter is the control that
// triggered the submission, or nil.
func (f *Form) DispatchSubmitEvent(ctx context.Context, submitter *dom.Node) error {
	if !f.node.DispatchEvent(newEvent(f.node, "submit", dom.EventInit{Bubbles: true, Cancelable: true})) {
		f.logger.Debug("Submit event cancelled")
		return nil
	}
	return f.submit(ctx, submitter)
}

// Submit hands the form to the navigator without firing a submit event or
// running validation.
func (f *Form) Submit(ctx context.Context) error {
	return f.submit(ctx, nil)
}

func (f *Form) submit(ctx context.Context, submitter *dom.Node) error {
	if f.navigator == nil {
		f.logger.Warn("Form submission not implemented", zap.String("action", f.Action()))
		return nil
	}
	s := f.BuildSubmission(submitter)
	f.logger.Debug("Submitting form",
		zap.String("action", s.Action),
		zap.String("method", s.Method),
		zap.String("enctype", s.Enctype),
		zap.Int("entries", len(s.Entries)))
	return f.navigator.Navigate(ctx, s)
}

// Reset restores every listed control that supports it to its default
// state, in tree order. No event is fired.
func (f *Form) Reset() {
	for _, n := range f.Elements().Slice() {
		if r, ok := n.Behavior().(Resetter); ok {
			r.FormReset()
		}
	}
}

// DispatchResetEvent fires a bubbling, cancelable reset event at the form
// and resets it unless a listener cancelled the event. It reports whether
// the reset happened.
func (f *Form) DispatchResetEvent() bool {
	if !f.node.DispatchEvent(newEvent(f.node, "reset", dom.EventInit{Bubbles: true, Cancelable: true})) {
		return false
	}
	f.Reset()
	return true
}

// RequestSubmit runs interactive validation unless the form has novalidate
// or the submitter has formnovalidate, then dispatches the submit event.
// When validation fails nothing is submitted and the failing result is
// returned with a nil error.
func (f *Form) RequestSubmit(ctx context.Context, submitter *dom.Node) (ValidationResult, error) {
	skip := f.node.HasAttribute("novalidate") || (submitter != nil && submitter.HasAttribute("formnovalidate"))
	if !skip {
		if result := f.InteractiveValidate(); !result.Valid {
			f.logger.Info("Submission blocked by invalid controls",
				zap.Int("unhandled", len(result.UnhandledInvalidControls)))
			return result, nil
		}
	}
	return ValidationResult{Valid: true}, f.DispatchSubmitEvent(ctx, submitter)
}
