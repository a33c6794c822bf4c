// internal/browser/network/submitter_test.go
package network

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
	"github.com/xkilldash9x/formctl/internal/browser/forms"
)

// capturedRequest is what the test server saw.
type capturedRequest struct {
	Method      string
	Path        string
	Query       string
	ContentType string
	Referer     string
	UserAgent   string
	Body        string
}

type captureServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []capturedRequest
}

func newCaptureServer(t *testing.T, respond http.HandlerFunc) *captureServer {
	t.Helper()
	cs := &captureServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		cs.mu.Lock()
		cs.requests = append(cs.requests, capturedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
			Referer:     r.Header.Get("Referer"),
			UserAgent:   r.Header.Get("User-Agent"),
			Body:        string(body),
		})
		cs.mu.Unlock()
		respond(w, r)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *captureServer) captured() []capturedRequest {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]capturedRequest(nil), cs.requests...)
}

func newSubmitter(t *testing.T, cfg SubmitterConfig, logger *zap.Logger) *FormSubmitter {
	t.Helper()
	client := NewClient(nil, logger)
	t.Cleanup(client.CloseIdleConnections)
	return NewFormSubmitter(cfg, logger, WithHTTPClient(client))
}

func parseForm(t *testing.T, markup, docURL string, nav forms.Navigator) *forms.Form {
	t.Helper()
	doc, err := dom.ParseString(markup, docURL,
		dom.WithLogger(zaptest.NewLogger(t)),
		dom.WithBehaviorFactory(forms.Behaviors(forms.WithNavigator(nav))))
	require.NoError(t, err)
	form := forms.FromNode(doc.GetElementByID("f"))
	require.NotNil(t, form)
	return form
}

func TestFormSubmitter_PostThroughForm(t *testing.T) {
	server := newCaptureServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write(brotlied(t, []byte(payload)))
	})
	submitter := newSubmitter(t, SubmitterConfig{UserAgent: "formctl-test"}, zaptest.NewLogger(t))

	form := parseForm(t, `<form id="f" method="post" action="/login">
		<input name="user" value="ada">
		<input name="pass" type="password" value="secret">
		<input type="checkbox" name="remember" checked>
		<button type="submit" name="go" value="1">Sign in</button>
	</form>`, server.URL+"/app/index.html#top", submitter)

	result, err := form.RequestSubmit(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, result.Valid)

	reqs := server.captured()
	require.Len(t, reqs, 1)
	assert.Equal(t, capturedRequest{
		Method:      http.MethodPost,
		Path:        "/login",
		ContentType: forms.EnctypeURLEncoded,
		Referer:     server.URL + "/app/index.html",
		UserAgent:   "formctl-test",
		Body:        "user=ada&pass=secret&remember=on",
	}, reqs[0])

	last := submitter.LastResponse()
	require.NotNil(t, last)
	assert.Equal(t, http.StatusOK, last.StatusCode)
	assert.Equal(t, "text/html", last.ContentType)
	assert.Equal(t, payload, string(last.Body))
	assert.Equal(t, server.URL+"/login", last.URL)
}

func TestFormSubmitter_GetFollowsRedirect(t *testing.T) {
	server := newCaptureServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			http.Redirect(w, r, "/results", http.StatusSeeOther)
			return
		}
		_, _ = io.WriteString(w, "results")
	})
	submitter := newSubmitter(t, SubmitterConfig{}, zaptest.NewLogger(t))

	form := parseForm(t, `<form id="f" action="/search?stale=1"><input name="q" value="go forms"></form>`,
		server.URL+"/", submitter)
	require.NoError(t, form.Submit(context.Background()))

	reqs := server.captured()
	require.Len(t, reqs, 2)
	assert.Equal(t, "q=go+forms", reqs[0].Query)
	assert.Equal(t, DefaultUserAgent, reqs[0].UserAgent)
	assert.Equal(t, "/results", reqs[1].Path)
	assert.Equal(t, server.URL+"/results", submitter.LastResponse().URL)
}

func TestFormSubmitter_ErrorStatusIsRecordedAndLogged(t *testing.T) {
	server := newCaptureServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	core, logs := observer.New(zap.DebugLevel)
	submitter := newSubmitter(t, SubmitterConfig{}, zap.New(core))

	err := submitter.Navigate(context.Background(), &forms.Submission{
		Action: server.URL + "/admin",
		Method: forms.MethodPost,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, submitter.LastResponse().StatusCode)

	warnings := logs.FilterMessage("Form submission returned an error status").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(http.StatusForbidden), warnings[0].ContextMap()["status"])
	assert.Equal(t, "form_submitter", warnings[0].LoggerName)
}

func TestFormSubmitter_ResponseBodyIsCapped(t *testing.T) {
	server := newCaptureServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "0123456789")
	})
	submitter := newSubmitter(t, SubmitterConfig{MaxResponseBytes: 4}, zaptest.NewLogger(t))

	require.NoError(t, submitter.Navigate(context.Background(), &forms.Submission{Action: server.URL, Method: forms.MethodGet}))
	assert.Equal(t, "0123", string(submitter.LastResponse().Body))
}

func TestFormSubmitter_RateLimitHonorsContext(t *testing.T) {
	server := newCaptureServer(t, func(w http.ResponseWriter, r *http.Request) {})
	submitter := newSubmitter(t, SubmitterConfig{RateLimit: 0.01, Burst: 1}, zaptest.NewLogger(t))
	sub := &forms.Submission{Action: server.URL, Method: forms.MethodGet}

	require.NoError(t, submitter.Navigate(context.Background(), sub))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := submitter.Navigate(ctx, sub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waiting for submission slot")
	assert.Len(t, server.captured(), 1)
}

func TestFormSubmitter_RejectsUnsupportedScheme(t *testing.T) {
	submitter := newSubmitter(t, SubmitterConfig{}, zaptest.NewLogger(t))
	err := submitter.Navigate(context.Background(), &forms.Submission{Action: "mailto:x@example.test", Method: forms.MethodPost})
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
	assert.Nil(t, submitter.LastResponse())
}

func TestFormSubmitter_DialogIsNoop(t *testing.T) {
	submitter := newSubmitter(t, SubmitterConfig{}, zaptest.NewLogger(t))
	err := submitter.Navigate(context.Background(), &forms.Submission{Action: "http://unreachable.invalid/", Method: forms.MethodDialog})
	require.NoError(t, err)
	assert.Nil(t, submitter.LastResponse())
}

func TestRecorder(t *testing.T) {
	recorder := NewRecorder(zaptest.NewLogger(t))
	form := parseForm(t, `<form id="f" method="post" enctype="text/plain" action="http://example.test/feedback">
		<textarea name="msg">hello</textarea>
		<input type="submit" id="send" name="send" value="Send">
	</form>`, "http://example.test/", recorder)

	submitterNode := form.Node().OwnerDocument().GetElementByID("send")
	require.NoError(t, form.DispatchSubmitEvent(context.Background(), submitterNode))

	reqs := recorder.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, &EncodedRequest{
		Method:      http.MethodPost,
		URL:         "http://example.test/feedback",
		ContentType: "text/plain;charset=UTF-8",
		Body:        []byte("msg=hello\r\nsend=Send\r\n"),
	}, reqs[0])
}

func TestRecorder_CancelledSubmitRecordsNothing(t *testing.T) {
	recorder := NewRecorder(nil)
	form := parseForm(t, `<form id="f" action="http://example.test/"><input name="a" value="1"></form>`,
		"http://example.test/", recorder)
	form.Node().AddEventListener("submit", func(ev *dom.Event) { ev.PreventDefault() })

	require.NoError(t, form.DispatchSubmitEvent(context.Background(), nil))
	assert.Empty(t, recorder.Requests())
}

func TestFormSubmitter_ReplaysSessionCookies(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		if c, err := r.Cookie("session"); err == nil {
			seen = append(seen, c.Value)
		} else {
			seen = append(seen, "")
		}
		mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
	}))
	t.Cleanup(server.Close)

	logger := zaptest.NewLogger(t)
	client := NewClient(NewClientConfig(), logger)
	t.Cleanup(client.CloseIdleConnections)
	submitter := NewFormSubmitter(SubmitterConfig{}, logger, WithHTTPClient(client))

	form := parseForm(t, `<form id="f" method="post" action="/step"><input name="a" value="1"></form>`,
		server.URL+"/", submitter)
	for range 2 {
		_, err := form.RequestSubmit(context.Background(), nil)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "abc"}, seen)
}
