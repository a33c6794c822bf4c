// cmd/document.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"github.com/xkilldash9x/formctl/internal/browser/forms"
	"github.com/xkilldash9x/formctl/internal/browser/jsbind"
	"github.com/xkilldash9x/formctl/internal/config"
)

// stdinSource names standard input on the command line.
const stdinSource = "-"

// documentLoader turns markup sources into documents with form behaviors
// and, when enabled, inline handlers attached.
type documentLoader struct {
	cfg       config.Interface
	logger    *zap.Logger
	navigator forms.Navigator
	stdin     io.Reader
}

func (l *documentLoader) load(ctx context.Context, source string) (*dom.Document, error) {
	var r io.Reader
	if source == stdinSource {
		r = l.stdin
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", source, err)
		}
		defer f.Close()
		r = f
	}

	formsCfg := l.cfg.Forms()
	opts := []forms.Option{
		forms.WithInvalidEventPolicy(formsCfg.InvalidEventPolicy()),
		forms.WithInteractiveMode(formsCfg.InteractiveMode()),
	}
	if l.navigator != nil {
		opts = append(opts, forms.WithNavigator(l.navigator))
	}

	logger := l.logger.With(zap.String("source", source))
	doc, err := dom.Parse(r, l.documentURL(source),
		dom.WithLogger(logger),
		dom.WithBehaviorFactory(forms.Behaviors(opts...)))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}

	if formsCfg.Scripts {
		bridge := jsbind.NewDOMBridge(doc, logger, jsbind.WithContext(ctx))
		bound, err := bridge.BindInlineHandlers()
		if err != nil {
			// A broken handler should not hide the rest of the document.
			logger.Warn("Some inline handlers failed to compile", zap.Error(err))
		}
		logger.Debug("Inline handlers bound", zap.Int("count", bound))
	}
	return doc, nil
}

// documentURL prefers the configured URL. Without one, files get a file URL
// so relative actions still resolve to something meaningful.
func (l *documentLoader) documentURL(source string) string {
	configured := l.cfg.Document().URL
	if configured != "" && configured != dom.AboutBlank {
		return configured
	}
	if source == stdinSource {
		return dom.AboutBlank
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return dom.AboutBlank
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// selectForms returns the forms matched by selector, a CSS selector or an
// XPath expression, in document order.
func selectForms(doc *dom.Document, selector string) ([]*forms.Form, error) {
	nodes, err := doc.Root().QueryAll(jsbind.SelectorToXPath(selector))
	if err != nil {
		return nil, fmt.Errorf("form selector %q: %w", selector, err)
	}
	var out []*forms.Form
	for _, n := range nodes {
		if f := forms.FromNode(n); f != nil {
			out = append(out, f)
		}
	}
	return out, nil
}
