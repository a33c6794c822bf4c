// cmd/report.go
package cmd

import (
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/formctl/api/schemas"
	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"github.com/xkilldash9x/formctl/internal/browser/forms"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func parseFormat(s string) (schemas.OutputFormat, error) {
	switch f := schemas.OutputFormat(strings.ToLower(s)); f {
	case schemas.FormatText, schemas.FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text or json)", s)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func newFormReport(source string, index int, f *forms.Form, result forms.ValidationResult) schemas.FormReport {
	n := f.Node()
	report := schemas.FormReport{
		Source:      source,
		Index:       index,
		ID:          n.AttributeOr("id", ""),
		Name:        n.AttributeOr("name", ""),
		Method:      f.Method(),
		Enctype:     f.Enctype(),
		Action:      f.Action(),
		Controls:    f.Length(),
		Submittable: len(f.SubmittableElements()),
		Valid:       result.Valid,
		State:       f.State().String(),
	}
	for _, c := range result.UnhandledInvalidControls {
		report.Unhandled = append(report.Unhandled, controlRef(c))
	}
	return report
}

func controlRef(n *dom.Node) schemas.ControlRef {
	ref := schemas.ControlRef{
		Tag:  n.LocalName(),
		ID:   n.AttributeOr("id", ""),
		Name: n.AttributeOr("name", ""),
		Path: dom.XPathOf(n),
	}
	if c, ok := n.Behavior().(*forms.Control); ok {
		ref.Message = c.ValidationMessage()
		if n.Is(atom.Input) {
			ref.Type = c.Type()
		}
	}
	return ref
}

func entryReports(entries []forms.Entry) []schemas.EntryReport {
	out := make([]schemas.EntryReport, 0, len(entries))
	for _, e := range entries {
		out = append(out, schemas.EntryReport{Name: e.Name, Value: e.Value, Filename: e.Filename, File: e.IsFile})
	}
	return out
}

// refLabel renders a control reference for text output.
type refLabel schemas.ControlRef

func (r refLabel) String() string {
	label := "<" + r.Tag
	if r.Type != "" {
		label += " type=" + r.Type
	}
	if r.ID != "" {
		label += " #" + r.ID
	}
	if r.Name != "" {
		label += " name=" + r.Name
	}
	return label + ">"
}

func formLabel(r schemas.FormReport) string {
	label := fmt.Sprintf("%s form[%d]", r.Source, r.Index)
	if r.ID != "" {
		label += " #" + r.ID
	}
	return label
}

func writeCheckText(w io.Writer, report schemas.CheckReport) error {
	var sb strings.Builder
	for _, f := range report.Forms {
		status := "valid"
		if !f.Valid {
			status = "INVALID"
		}
		fmt.Fprintf(&sb, "%s: %s (%s %s -> %s, %d controls)\n",
			formLabel(f), status, strings.ToUpper(f.Method), f.Enctype, f.Action, f.Controls)
		for _, c := range f.Unhandled {
			fmt.Fprintf(&sb, "  %s %s\n", refLabel(c), c.Message)
		}
	}
	fmt.Fprintf(&sb, "%d form(s) checked, %d invalid\n", len(report.Forms), report.Invalid)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeSubmissionText(w io.Writer, report schemas.SubmissionReport) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", formLabel(report.Form))
	if report.Submitter != nil {
		fmt.Fprintf(&sb, "  submitter: %s\n", refLabel(*report.Submitter))
	}
	if !report.Submitted {
		reason := "cancelled by a submit listener"
		if !report.Form.Valid {
			reason = "blocked by invalid controls"
		}
		fmt.Fprintf(&sb, "  not submitted: %s\n", reason)
		for _, c := range report.Form.Unhandled {
			fmt.Fprintf(&sb, "    %s %s\n", refLabel(c), c.Message)
		}
		_, err := io.WriteString(w, sb.String())
		return err
	}

	fmt.Fprintf(&sb, "  %s %s\n", report.Method, report.URL)
	if report.ContentType != "" {
		fmt.Fprintf(&sb, "  Content-Type: %s\n", report.ContentType)
	}
	for _, e := range report.Entries {
		if e.File {
			fmt.Fprintf(&sb, "  %s=<file %q>\n", e.Name, e.Filename)
			continue
		}
		fmt.Fprintf(&sb, "  %s=%s\n", e.Name, e.Value)
	}
	if report.DryRun {
		sb.WriteString("  (dry run, nothing sent)\n")
	}
	if r := report.Response; r != nil {
		fmt.Fprintf(&sb, "  -> %d %s (%d bytes)\n", r.Status, r.FinalURL, r.Bytes)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
