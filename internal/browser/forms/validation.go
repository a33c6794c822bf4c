// internal/browser/forms/validation.go
package forms

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"go.uber.org/zap"
)

// ValidationResult is the outcome of a validation run. UnhandledInvalidControls
// lists, in tree order, the invalid controls left for the user agent to
// report. It is nil when the form is valid.
type ValidationResult struct {
	Valid                    bool
	UnhandledInvalidControls []*dom.Node
}

// ValidationState tracks a validation run.
type ValidationState int

const (
	StateIdle ValidationState = iota
	StateChecking
	StateValid
	StateInvalid
)

func (s ValidationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	}
	return fmt.Sprintf("ValidationState(%d)", int(s))
}

// InvalidEventPolicy decides which invalid controls are reported as unhandled.
type InvalidEventPolicy int

const (
	// InvalidEventsExcludeCancelled leaves out controls whose invalid event
	// was cancelled by a listener.
	InvalidEventsExcludeCancelled InvalidEventPolicy = iota
	// InvalidEventsRecordAll reports every invalid control whatever the
	// outcome of its invalid event.
	InvalidEventsRecordAll
)

func (p InvalidEventPolicy) String() string {
	switch p {
	case InvalidEventsExcludeCancelled:
		return "exclude_cancelled"
	case InvalidEventsRecordAll:
		return "record_all"
	}
	return fmt.Sprintf("InvalidEventPolicy(%d)", int(p))
}

// ParseInvalidEventPolicy converts a configuration value into a policy.
func ParseInvalidEventPolicy(s string) (InvalidEventPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclude_cancelled":
		return InvalidEventsExcludeCancelled, nil
	case "record_all":
		return InvalidEventsRecordAll, nil
	}
	return 0, fmt.Errorf("unknown invalid event policy %q", s)
}

// InteractiveMode decides what interactive validation does with an invalid form.
type InteractiveMode int

const (
	// InteractiveFocusFirst focuses the first unhandled invalid control and
	// returns the invalid result.
	InteractiveFocusFirst InteractiveMode = iota
	// InteractiveObserved neither focuses nor reports anything and returns
	// the zero result.
	InteractiveObserved
)

func (m InteractiveMode) String() string {
	switch m {
	case InteractiveFocusFirst:
		return "focus_first"
	case InteractiveObserved:
		return "observed"
	}
	return fmt.Sprintf("InteractiveMode(%d)", int(m))
}

// ParseInteractiveMode converts a configuration value into a mode.
func ParseInteractiveMode(s string) (InteractiveMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "focus_first":
		return InteractiveFocusFirst, nil
	case "observed":
		return InteractiveObserved, nil
	}
	return 0, fmt.Errorf("unknown interactive mode %q", s)
}

// StaticValidate checks every submittable control. When some are invalid it
// fires a cancelable, non-bubbling invalid event at each of them in tree
// order. The control list is fixed before any event fires, so listeners
// that mutate the form do not change which controls are visited.
func (f *Form) StaticValidate() ValidationResult {
	f.setState(StateChecking)

	controls := f.SubmittableElements()
	var invalid []*dom.Node
	for _, n := range controls {
		if v, ok := n.Behavior().(Validator); ok && !v.CheckValidity() {
			invalid = append(invalid, n)
		}
	}
	if len(invalid) == 0 {
		f.setState(StateValid)
		return ValidationResult{Valid: true}
	}

	var unhandled []*dom.Node
	for _, n := range invalid {
		notCancelled := fireInvalid(n)
		if notCancelled || f.invalidPolicy == InvalidEventsRecordAll {
			unhandled = append(unhandled, n)
		}
	}

	f.setState(StateInvalid)
	f.logger.Debug("Static validation failed",
		zap.Int("controls", len(controls)),
		zap.Int("invalid", len(invalid)),
		zap.Int("unhandled", len(unhandled)),
		zap.Stringer("policy", f.invalidPolicy))
	return ValidationResult{Valid: false, UnhandledInvalidControls: unhandled}
}

// InteractiveValidate runs static validation and, when the form is invalid,
// reports the problems according to the configured InteractiveMode.
func (f *Form) InteractiveValidate() ValidationResult {
	result := f.StaticValidate()
	if result.Valid {
		return result
	}

	switch f.interactive {
	case InteractiveObserved:
		return ValidationResult{}
	default:
		// Only the first unhandled control is tried. Without Focuser nothing
		// else gets focus.
		if len(result.UnhandledInvalidControls) == 0 {
			return result
		}
		n := result.UnhandledInvalidControls[0]
		if fc, ok := n.Behavior().(Focuser); ok && fc.Focus() {
			f.logger.Info("Focused invalid control",
				zap.String("element", n.LocalName()),
				zap.String("name", n.AttributeOr("name", "")))
		}
		return result
	}
}

// CheckValidity is the form.checkValidity() entry point.
func (f *Form) CheckValidity() ValidationResult {
	return f.StaticValidate()
}

// ReportValidity is the form.reportValidity() entry point.
func (f *Form) ReportValidity() ValidationResult {
	return f.InteractiveValidate()
}

func (f *Form) setState(s ValidationState) {
	if f.state == s {
		return
	}
	f.logger.Debug("Validation state changed",
		zap.Stringer("from", f.state),
		zap.Stringer("to", s))
	f.state = s
}

// fireInvalid dispatches a fresh invalid event at n and reports whether it
// was not cancelled.
func fireInvalid(n *dom.Node) bool {
	return n.DispatchEvent(newEvent(n, "invalid", dom.EventInit{Bubbles: false, Cancelable: true}))
}
