// cmd/check.go
package cmd

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/formctl/api/schemas"
	"github.com/xkilldash9x/formctl/internal/browser/forms"
)

// ErrInvalidForms is returned by check when at least one form failed validation.
var ErrInvalidForms = errors.New("invalid forms found")

type checkOptions struct {
	selector      string
	format        string
	invalidEvents string
	concurrency   int
}

func newCheckCmd(a *app) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Statically validate the forms in HTML documents",
		Long: `Parses each document, attaches form behaviors and runs static validation
on every selected form. Invalid controls receive invalid events, so inline
oninvalid handlers run and may cancel them. Use "-" to read standard input.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("invalid-events") {
				return nil
			}
			if _, err := forms.ParseInvalidEventPolicy(opts.invalidEvents); err != nil {
				return err
			}
			a.cfg.SetFormsInvalidEvents(opts.invalidEvents)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(opts.format)
			if err != nil {
				return err
			}
			report, err := a.runCheck(cmd, args, opts)
			if err != nil {
				return err
			}
			if format == schemas.FormatJSON {
				err = writeJSON(cmd.OutOrStdout(), report)
			} else {
				err = writeCheckText(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}
			if report.Invalid > 0 {
				return fmt.Errorf("%w: %d of %d", ErrInvalidForms, report.Invalid, len(report.Forms))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.selector, "form", "f", "form", "CSS selector or XPath of the forms to check")
	cmd.Flags().StringVarP(&opts.format, "format", "o", "text", "output format: text or json")
	cmd.Flags().StringVar(&opts.invalidEvents, "invalid-events", "", "cancelled invalid events: exclude_cancelled or record_all")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", runtime.GOMAXPROCS(0), "documents processed in parallel")
	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, sources []string, opts *checkOptions) (schemas.CheckReport, error) {
	loader := &documentLoader{cfg: a.cfg, logger: a.logger, stdin: cmd.InOrStdin()}
	perSource := make([][]schemas.FormReport, len(sources))

	g, ctx := errgroup.WithContext(cmd.Context())
	if opts.concurrency > 0 {
		g.SetLimit(opts.concurrency)
	}
	for i, source := range sources {
		g.Go(func() error {
			doc, err := loader.load(ctx, source)
			if err != nil {
				return err
			}
			selected, err := selectForms(doc, opts.selector)
			if err != nil {
				return err
			}
			if len(selected) == 0 {
				a.logger.Warn("No forms matched", zap.String("source", source), zap.String("selector", opts.selector))
			}
			for idx, f := range selected {
				perSource[i] = append(perSource[i], newFormReport(source, idx, f, f.StaticValidate()))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return schemas.CheckReport{}, err
	}

	report := schemas.CheckReport{ID: uuid.NewString(), GeneratedAt: time.Now().UTC(), Forms: []schemas.FormReport{}}
	for _, reports := range perSource {
		for _, r := range reports {
			if !r.Valid {
				report.Invalid++
			}
			report.Forms = append(report.Forms, r)
		}
	}
	a.logger.Info("Check complete", zap.Int("forms", len(report.Forms)), zap.Int("invalid", report.Invalid))
	return report, nil
}
