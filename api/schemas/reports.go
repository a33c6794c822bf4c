// api/schemas/reports.go
package schemas

import "time"

// -- Report Formats --

// OutputFormat selects how a command prints its reports.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// -- Check Reports --

// CheckReport is the result of validating every selected form in a set of documents.
type CheckReport struct {
	ID          string       `json:"id"`
	GeneratedAt time.Time    `json:"generated_at"`
	Forms       []FormReport `json:"forms"`
	// Invalid counts the forms whose static validation failed.
	Invalid int `json:"invalid"`
}

// FormReport describes one form and the outcome of its static validation.
type FormReport struct {
	Source      string       `json:"source"`
	Index       int          `json:"index"`
	ID          string       `json:"id,omitempty"`
	Name        string       `json:"name,omitempty"`
	Method      string       `json:"method"`
	Enctype     string       `json:"enctype"`
	Action      string       `json:"action"`
	Controls    int          `json:"controls"`
	Submittable int          `json:"submittable"`
	Valid       bool         `json:"valid"`
	State       string       `json:"state"`
	Unhandled   []ControlRef `json:"unhandled,omitempty"`
}

// ControlRef identifies a control inside a report.
type ControlRef struct {
	Tag     string `json:"tag"`
	Type    string `json:"type,omitempty"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Path    string `json:"path"`
	Message string `json:"message,omitempty"`
}

// -- Submission Reports --

// SubmissionReport is the result of submitting one form.
type SubmissionReport struct {
	ID        string      `json:"id"`
	Form      FormReport  `json:"form"`
	Submitter *ControlRef `json:"submitter,omitempty"`

	// Submitted is false when validation or a submit listener stopped the submission.
	Submitted   bool          `json:"submitted"`
	DryRun      bool          `json:"dry_run"`
	Method      string        `json:"method,omitempty"`
	URL         string        `json:"url,omitempty"`
	ContentType string        `json:"content_type,omitempty"`
	Entries     []EntryReport `json:"entries,omitempty"`
	Body        string        `json:"body,omitempty"`

	Response *ResponseReport `json:"response,omitempty"`
}

// EntryReport is one entry of a submitted form data set.
type EntryReport struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Filename string `json:"filename,omitempty"`
	File     bool   `json:"file,omitempty"`
}

// ResponseReport summarizes the server's answer to a submission.
type ResponseReport struct {
	Status      int    `json:"status"`
	FinalURL    string `json:"final_url"`
	ContentType string `json:"content_type,omitempty"`
	Bytes       int    `json:"bytes"`
}
