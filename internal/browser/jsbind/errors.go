// internal/browser/jsbind/errors.go
package jsbind

import "fmt"

// Typed errors let callers separate script failures from DOM failures with
// errors.As instead of matching message text.

// ScriptError reports a script or inline handler that failed to compile or threw.
type ScriptError struct {
	// Source names the script, e.g. "form#login.onsubmit".
	Source string
	Err    error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("script %s: %v", e.Source, e.Err)
}

// Unwrap provides the underlying error for use with errors.Is/As.
func (e *ScriptError) Unwrap() error {
	return e.Err
}

// ElementNotFoundError is returned when a selector matches no element.
type ElementNotFoundError struct {
	Selector string
}

// Error implements the error interface.
func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found matching selector '%s'", e.Selector)
}
