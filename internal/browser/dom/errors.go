// internal/browser/dom/errors.go
package dom

import "fmt"

// Typed errors let callers classify tree mutation failures with errors.As
// instead of matching message text.

// HierarchyRequestError reports an insertion that would produce an invalid tree.
type HierarchyRequestError struct {
	Op     string
	Reason string
}

// Error implements the error interface.
func (e *HierarchyRequestError) Error() string {
	return fmt.Sprintf("%s: hierarchy request error: %s", e.Op, e.Reason)
}

// NotFoundError reports a reference to a node that is not where the operation expects it.
type NotFoundError struct {
	Op     string
	Reason string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: not found: %s", e.Op, e.Reason)
}

// SyntaxError reports an expression (XPath, URL) that could not be parsed.
type SyntaxError struct {
	Input string
	Err   error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in %q: %v", e.Input, e.Err)
}

// Unwrap provides the underlying error for use with errors.Is/As.
func (e *SyntaxError) Unwrap() error {
	return e.Err
}
