// internal/browser/network/httpclient.go
package network

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultRequestTimeout        = 30 * time.Second
	DefaultDialTimeout           = 10 * time.Second
	DefaultKeepAlive             = 30 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultResponseHeaderTimeout = 20 * time.Second
	DefaultIdleConnTimeout       = 90 * time.Second
	DefaultMaxIdleConnsPerHost   = 4

	// DefaultUserAgent identifies submissions made by this tool.
	DefaultUserAgent = "formctl/1.0"
)

// SecureMinTLSVersion is the lowest TLS version accepted unless a caller
// opts into something weaker through TLSConfig.
const SecureMinTLSVersion = tls.VersionTLS12

// ClientConfig describes the HTTP client used for form submissions.
type ClientConfig struct {
	RequestTimeout     time.Duration
	InsecureSkipVerify bool
	TLSConfig          *tls.Config
	ProxyURL           *url.URL
	CookieJar          http.CookieJar

	// FollowRedirects lets the client chase 3xx responses. Submissions
	// usually answer with 303 See Other, so it is on by default.
	FollowRedirects bool
}

// NewClientConfig returns the defaults used by the CLI.
func NewClientConfig() *ClientConfig {
	// Session cookies set by one submission's response are replayed on the
	// next, scoped to the registrable domain. cookiejar.New never fails here.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &ClientConfig{
		RequestTimeout:  DefaultRequestTimeout,
		CookieJar:       jar,
		FollowRedirects: true,
	}
}

// NewHTTPTransport builds the base transport. Compression is disabled here
// because DecompressingTransport owns content decoding.
func NewHTTPTransport(cfg *ClientConfig, logger *zap.Logger) *http.Transport {
	if cfg == nil {
		cfg = NewClientConfig()
	}
	dialer := &net.Dialer{Timeout: DefaultDialTimeout, KeepAlive: DefaultKeepAlive}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsConfig(cfg, logger),
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		MaxIdleConnsPerHost:   DefaultMaxIdleConnsPerHost,
		DisableCompression:    true,
		ForceAttemptHTTP2:     true,
	}
	if cfg.ProxyURL != nil {
		transport.Proxy = http.ProxyURL(cfg.ProxyURL)
	}
	return transport
}

// NewClient creates the http.Client used by FormSubmitter.
func NewClient(cfg *ClientConfig, logger *zap.Logger) *http.Client {
	if cfg == nil {
		cfg = NewClientConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{
		Transport: NewDecompressingTransport(NewHTTPTransport(cfg, logger)),
		Timeout:   cfg.RequestTimeout,
		Jar:       cfg.CookieJar,
	}
	if !cfg.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

func tlsConfig(cfg *ClientConfig, logger *zap.Logger) *tls.Config {
	var tc *tls.Config
	if cfg.TLSConfig != nil {
		tc = cfg.TLSConfig.Clone()
	} else {
		tc = &tls.Config{}
	}
	if tc.MinVersion == 0 {
		tc.MinVersion = SecureMinTLSVersion
	}
	if tc.MinVersion < SecureMinTLSVersion && logger != nil {
		logger.Warn("TLS minimum version below TLS 1.2", zap.Uint16("min_version", tc.MinVersion))
	}
	tc.InsecureSkipVerify = cfg.InsecureSkipVerify
	return tc
}
