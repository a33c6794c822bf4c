// internal/browser/network/submitter.go
package network

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/formctl/internal/browser/forms"
)

// DefaultMaxResponseBytes caps how much of a response body is retained.
const DefaultMaxResponseBytes = 1 << 20

// SubmitterConfig configures a FormSubmitter.
type SubmitterConfig struct {
	Client *ClientConfig
	// RateLimit is the sustained number of submissions per second. Zero or
	// less disables pacing.
	RateLimit float64
	Burst     int
	UserAgent string
	// MaxResponseBytes bounds the retained body; zero uses the default.
	MaxResponseBytes int64
}

// Response is the outcome of the last navigation.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// SubmitterOption customizes a FormSubmitter.
type SubmitterOption func(*FormSubmitter)

// WithHTTPClient replaces the client built from SubmitterConfig.Client.
func WithHTTPClient(client *http.Client) SubmitterOption {
	return func(s *FormSubmitter) {
		if client != nil {
			s.client = client
		}
	}
}

// FormSubmitter sends form submissions over HTTP. It implements forms.Navigator.
type FormSubmitter struct {
	client    *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
	userAgent string
	maxBody   int64

	mu   sync.Mutex
	last *Response
}

var _ forms.Navigator = (*FormSubmitter)(nil)

// NewFormSubmitter creates a submitter from cfg.
func NewFormSubmitter(cfg SubmitterConfig, logger *zap.Logger, opts ...SubmitterOption) *FormSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("form_submitter")

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	s := &FormSubmitter{
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxResponseBytes,
	}
	if s.userAgent == "" {
		s.userAgent = DefaultUserAgent
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxResponseBytes
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = NewClient(cfg.Client, logger)
	}
	return s
}

// Navigate encodes and sends sub. Responses of any status are recorded
// rather than treated as failures, as a browser would render them.
func (s *FormSubmitter) Navigate(ctx context.Context, sub *forms.Submission) error {
	encoded, err := Encode(sub)
	if err != nil {
		return err
	}
	if encoded == nil {
		s.logger.Debug("Dialog submission has no network effect")
		return nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for submission slot: %w", err)
	}

	req, err := s.newRequest(ctx, encoded, referrer(sub))
	if err != nil {
		return err
	}

	s.logger.Info("Submitting form",
		zap.String("method", encoded.Method),
		zap.String("url", req.URL.Redacted()),
		zap.String("content_type", encoded.ContentType),
		zap.Int("body_bytes", len(encoded.Body)))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("submitting form to %s: %w", req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", req.URL.Redacted(), err)
	}

	result := &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	fields := []zap.Field{zap.Int("status", resp.StatusCode), zap.String("final_url", result.URL)}
	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Warn("Form submission returned an error status", fields...)
	} else {
		s.logger.Debug("Form submission completed", fields...)
	}
	return nil
}

// LastResponse returns the response of the most recent navigation, or nil.
func (s *FormSubmitter) LastResponse() *Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *FormSubmitter) newRequest(ctx context.Context, encoded *EncodedRequest, referer string) (*http.Request, error) {
	var body io.Reader
	if encoded.Body != nil {
		body = bytes.NewReader(encoded.Body)
	}
	req, err := http.NewRequestWithContext(ctx, encoded.Method, encoded.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if encoded.ContentType != "" {
		req.Header.Set("Content-Type", encoded.ContentType)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	return req, nil
}

// referrer returns the submitting document's URL when it is an http(s) URL.
func referrer(sub *forms.Submission) string {
	if sub.Form == nil {
		return ""
	}
	doc := sub.Form.Node().OwnerDocument()
	if doc == nil {
		return ""
	}
	u, err := url.Parse(doc.URL())
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	u.Fragment = ""
	u.User = nil
	return u.String()
}

// Recorder is a Navigator that encodes submissions without sending them.
type Recorder struct {
	logger *zap.Logger

	mu       sync.Mutex
	requests []*EncodedRequest
}

var _ forms.Navigator = (*Recorder)(nil)

// NewRecorder creates a dry-run navigator.
func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger.Named("dry_run")}
}

// Navigate records the encoded form of sub.
func (r *Recorder) Navigate(_ context.Context, sub *forms.Submission) error {
	encoded, err := Encode(sub)
	if err != nil {
		return err
	}
	if encoded == nil {
		return nil
	}
	r.logger.Info("Recorded submission", zap.String("method", encoded.Method), zap.String("url", encoded.URL))
	r.mu.Lock()
	r.requests = append(r.requests, encoded)
	r.mu.Unlock()
	return nil
}

// Requests returns the recorded submissions in order.
func (r *Recorder) Requests() []*EncodedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*EncodedRequest, len(r.requests))
	copy(out, r.requests)
	return out
}
