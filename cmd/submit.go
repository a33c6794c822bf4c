// cmd/submit.go
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formctl/api/schemas"
	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"github.com/xkilldash9x/formctl/internal/browser/forms"
	"github.com/xkilldash9x/formctl/internal/browser/jsbind"
	"github.com/xkilldash9x/formctl/internal/browser/network"
	"github.com/xkilldash9x/formctl/internal/config"
)

type submitOptions struct {
	selector    string
	submitter   string
	format      string
	interactive string
	values      []string
	dryRun      bool
}

func newSubmitCmd(a *app) *cobra.Command {
	opts := &submitOptions{}
	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Fill in and submit a form from an HTML document",
		Long: `Loads the document, applies --set values to the selected form and submits
it the way a user would: through the submitter's click when --submitter is
given, otherwise through requestSubmit. Interactive validation and submit
listeners can stop the submission.`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dry-run") {
				a.cfg.SetNetworkDryRun(opts.dryRun)
			}
			if cmd.Flags().Changed("interactive") {
				if _, err := forms.ParseInteractiveMode(opts.interactive); err != nil {
					return err
				}
				a.cfg.SetFormsInteractive(opts.interactive)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(opts.format)
			if err != nil {
				return err
			}
			report, err := a.runSubmit(cmd, args[0], opts)
			if err != nil {
				return err
			}
			if format == schemas.FormatJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return writeSubmissionText(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&opts.selector, "form", "f", "form", "CSS selector or XPath of the form; the first match is used")
	cmd.Flags().StringVarP(&opts.submitter, "submitter", "s", "", "CSS selector or XPath of the button to click")
	cmd.Flags().StringArrayVar(&opts.values, "set", nil, "control value as name=value; repeatable")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "encode the submission without sending it")
	cmd.Flags().StringVar(&opts.interactive, "interactive", "", "interactive validation: focus_first or observed")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "text", "output format: text or json")
	return cmd
}

// capturingNavigator remembers the submission it forwards.
type capturingNavigator struct {
	next     forms.Navigator
	captured *forms.Submission
}

func (c *capturingNavigator) Navigate(ctx context.Context, s *forms.Submission) error {
	c.captured = s
	return c.next.Navigate(ctx, s)
}

func (a *app) newNavigator() (forms.Navigator, *network.FormSubmitter, error) {
	netCfg := a.cfg.Network()
	if netCfg.DryRun {
		return network.NewRecorder(a.logger), nil, nil
	}
	proxy, err := netCfg.ProxyURL()
	if err != nil {
		return nil, nil, err
	}
	clientCfg := network.NewClientConfig()
	clientCfg.RequestTimeout = netCfg.Timeout
	clientCfg.InsecureSkipVerify = netCfg.IgnoreTLSErrors
	clientCfg.ProxyURL = proxy
	clientCfg.FollowRedirects = netCfg.FollowRedirects

	submitter := network.NewFormSubmitter(network.SubmitterConfig{
		Client:           clientCfg,
		RateLimit:        netCfg.RateLimit,
		Burst:            netCfg.Burst,
		UserAgent:        netCfg.UserAgent,
		MaxResponseBytes: netCfg.MaxResponseBytes,
	}, a.logger)
	return submitter, submitter, nil
}

func (a *app) runSubmit(cmd *cobra.Command, source string, opts *submitOptions) (schemas.SubmissionReport, error) {
	ctx := cmd.Context()
	nav, httpSubmitter, err := a.newNavigator()
	if err != nil {
		return schemas.SubmissionReport{}, err
	}
	capture := &capturingNavigator{next: nav}

	loader := &documentLoader{cfg: a.cfg, logger: a.logger, navigator: capture, stdin: cmd.InOrStdin()}
	doc, err := loader.load(ctx, source)
	if err != nil {
		return schemas.SubmissionReport{}, err
	}
	selected, err := selectForms(doc, opts.selector)
	if err != nil {
		return schemas.SubmissionReport{}, err
	}
	if len(selected) == 0 {
		return schemas.SubmissionReport{}, fmt.Errorf("no form matches %q in %s", opts.selector, source)
	}
	form := selected[0]

	if err := applyValues(form, opts.values); err != nil {
		return schemas.SubmissionReport{}, err
	}

	report := schemas.SubmissionReport{ID: uuid.NewString(), DryRun: a.cfg.Network().DryRun}
	var result forms.ValidationResult
	if opts.submitter != "" {
		result, report.Submitter, err = clickSubmitter(ctx, doc, form, opts.submitter, a.cfg.Forms())
	} else {
		result, err = form.RequestSubmit(ctx, nil)
	}
	if err != nil {
		return schemas.SubmissionReport{}, err
	}
	report.Form = newFormReport(source, 0, form, result)

	s := capture.captured
	if s == nil {
		a.logger.Info("Form was not submitted", zap.Bool("valid", result.Valid))
		return report, nil
	}
	report.Submitted = true
	report.Method, report.URL = strings.ToUpper(s.Method), s.Action
	report.Entries = entryReports(s.Entries)
	if encoded, err := network.Encode(s); err == nil && encoded != nil {
		report.Method, report.URL, report.ContentType = encoded.Method, encoded.URL, encoded.ContentType
		if report.DryRun {
			report.Body = string(encoded.Body)
		}
	}
	if httpSubmitter != nil {
		if last := httpSubmitter.LastResponse(); last != nil {
			report.Response = &schemas.ResponseReport{
				Status:      last.StatusCode,
				FinalURL:    last.URL,
				ContentType: last.ContentType,
				Bytes:       len(last.Body),
			}
		}
	}
	return report, nil
}

// clickSubmitter activates the control matched by selector. Its outcome is
// read back from the invalid events it caused, since a click reports nothing.
// Events are inspected after dispatch so handler cancellations are visible.
// In observed mode a failed click yields the zero result, as RequestSubmit does.
func clickSubmitter(ctx context.Context, doc *dom.Document, form *forms.Form, selector string, formsCfg config.FormsConfig) (forms.ValidationResult, *schemas.ControlRef, error) {
	n, err := doc.Root().Query(jsbind.SelectorToXPath(selector))
	if err != nil {
		return forms.ValidationResult{}, nil, fmt.Errorf("submitter selector %q: %w", selector, err)
	}
	if n == nil {
		return forms.ValidationResult{}, nil, fmt.Errorf("no control matches submitter selector %q", selector)
	}
	control, ok := n.Behavior().(*forms.Control)
	if !ok {
		return forms.ValidationResult{}, nil, fmt.Errorf("submitter %q is not a form control", selector)
	}
	if control.Form() != form {
		return forms.ValidationResult{}, nil, fmt.Errorf("submitter %q does not belong to the selected form", selector)
	}

	var events []*dom.Event
	stop := form.Node().AddEventListener("invalid", func(ev *dom.Event) {
		events = append(events, ev)
	}, dom.ListenerOptions{Capture: true})
	defer stop()

	if err := control.Click(ctx); err != nil {
		return forms.ValidationResult{}, nil, err
	}
	ref := controlRef(n)
	if len(events) == 0 {
		return forms.ValidationResult{Valid: true}, &ref, nil
	}
	result := forms.ValidationResult{}
	if formsCfg.InteractiveMode() == forms.InteractiveObserved {
		return result, &ref, nil
	}
	policy := formsCfg.InvalidEventPolicy()
	for _, ev := range events {
		if policy == forms.InvalidEventsRecordAll || !ev.DefaultPrevented() {
			result.UnhandledInvalidControls = append(result.UnhandledInvalidControls, ev.Target())
		}
	}
	return result, &ref, nil
}

// applyValues assigns --set values. Checkboxes and radios named name are
// checked when their value matches; other controls take the value.
func applyValues(form *forms.Form, values []string) error {
	for _, kv := range values {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return fmt.Errorf("invalid --set %q: want name=value", kv)
		}
		matched := false
		for _, n := range form.Elements().Slice() {
			c, ok := n.Behavior().(*forms.Control)
			if !ok || n.AttributeOr("name", "") != name {
				continue
			}
			switch c.Type() {
			case "checkbox", "radio":
				if c.Value() == value {
					c.SetChecked(true)
					matched = true
				}
			case "submit", "reset", "button", "image", "file":
			default:
				c.SetValue(value)
				matched = true
			}
		}
		if !matched {
			return fmt.Errorf("no control named %q accepts %q", name, value)
		}
	}
	return nil
}
