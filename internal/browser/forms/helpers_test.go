// internal/browser/forms/helpers_test.go
package forms

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
)

const testURL = "http://example.test/app/page.html"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestDocument parses markup with the standard form behaviors installed.
func newTestDocument(t *testing.T, markup string, opts ...Option) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(markup, testURL,
		dom.WithLogger(zaptest.NewLogger(t)),
		dom.WithBehaviorFactory(Behaviors(opts...)))
	require.NoError(t, err)
	return doc
}

// newLoggedDocument is newTestDocument with a caller supplied logger.
func newLoggedDocument(t *testing.T, logger *zap.Logger, markup string, opts ...Option) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(markup, testURL,
		dom.WithLogger(logger),
		dom.WithBehaviorFactory(Behaviors(opts...)))
	require.NoError(t, err)
	return doc
}

func formByID(t *testing.T, doc *dom.Document, id string) *Form {
	t.Helper()
	f := FromNode(doc.GetElementByID(id))
	require.NotNil(t, f, "form %q not found", id)
	return f
}

func byID(t *testing.T, doc *dom.Document, id string) *dom.Node {
	t.Helper()
	n := doc.GetElementByID(id)
	require.NotNil(t, n, "element %q not found", id)
	return n
}

// callLog records calls made on probes in the order they happen.
type callLog []string

func (l *callLog) add(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

// probe is a control behavior that records every capability call.
type probe struct {
	name  string
	log   *callLog
	owner *Form
	valid bool
}

func (p *probe) FormOwnerChanged(f *Form) {
	p.owner = f
	if f == nil {
		p.log.add("%s:nil", p.name)
		return
	}
	p.log.add("%s:%s", p.name, f.Node().AttributeOr("id", "form"))
}

func (p *probe) CheckValidity() bool {
	p.log.add("check:%s", p.name)
	return p.valid
}

func (p *probe) FormReset() {
	p.log.add("reset:%s", p.name)
}

// newProbe creates a detached element of the given tag carrying a probe.
func newProbe(doc *dom.Document, tag, name string, log *callLog) (*dom.Node, *probe) {
	n := doc.CreateElement(tag)
	n.SetAttribute("id", name)
	p := &probe{name: name, log: log, valid: true}
	n.SetBehavior(p)
	return n, p
}

// ownerOnly implements nothing but FormOwnerChanger.
type ownerOnly struct{ owner *Form }

func (o *ownerOnly) FormOwnerChanged(f *Form) { o.owner = f }

// MockValidator is a testify mock for the Validator capability.
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) CheckValidity() bool {
	return m.Called().Bool(0)
}

// MockNavigator is a testify mock for Navigator.
type MockNavigator struct {
	mock.Mock
}

func (m *MockNavigator) Navigate(ctx context.Context, s *Submission) error {
	return m.Called(ctx, s).Error(0)
}
