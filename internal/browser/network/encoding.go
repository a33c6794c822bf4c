// internal/browser/network/encoding.go
package network

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/xkilldash9x/formctl/internal/browser/forms"
)

// ErrUnsupportedScheme is returned for action URLs that are not http or https.
var ErrUnsupportedScheme = errors.New("unsupported action scheme")

// EncodedRequest is a submission serialized for the wire but not yet sent.
type EncodedRequest struct {
	Method      string
	URL         string
	ContentType string
	Body        []byte
}

// Encode serializes s according to its method and enctype. GET submissions
// replace the query of the action URL. POST submissions carry the data set
// in the body. Dialog submissions never reach the network and yield nil.
func Encode(s *forms.Submission) (*EncodedRequest, error) {
	if s == nil {
		return nil, errors.New("nil submission")
	}
	if s.Method == forms.MethodDialog {
		return nil, nil
	}
	target, err := url.Parse(s.Action)
	if err != nil {
		return nil, fmt.Errorf("parsing action %q: %w", s.Action, err)
	}
	switch strings.ToLower(target.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, target.Scheme)
	}

	if s.Method != forms.MethodPost {
		target.RawQuery = urlencode(s.Entries)
		target.Fragment = ""
		return &EncodedRequest{Method: http.MethodGet, URL: target.String()}, nil
	}

	req := &EncodedRequest{Method: http.MethodPost, URL: target.String()}
	switch s.Enctype {
	case forms.EnctypeMultipart:
		body, contentType, err := multipartBody(s.Entries)
		if err != nil {
			return nil, fmt.Errorf("encoding multipart body: %w", err)
		}
		req.Body, req.ContentType = body, contentType
	case forms.EnctypeTextPlain:
		req.Body = []byte(textPlain(s.Entries))
		req.ContentType = "text/plain;charset=UTF-8"
	default:
		req.Body = []byte(urlencode(s.Entries))
		req.ContentType = forms.EnctypeURLEncoded
	}
	return req, nil
}

// urlencode keeps entry order, which url.Values.Encode would sort away.
func urlencode(entries []forms.Entry) string {
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteByte('&')
		}
		value := e.Value
		if e.IsFile {
			value = e.Filename
		}
		sb.WriteString(url.QueryEscape(normalizeNewlines(e.Name)))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(normalizeNewlines(value)))
	}
	return sb.String()
}

func textPlain(entries []forms.Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		value := e.Value
		if e.IsFile {
			value = e.Filename
		}
		sb.WriteString(normalizeNewlines(e.Name))
		sb.WriteByte('=')
		sb.WriteString(normalizeNewlines(value))
		sb.WriteString("\r\n")
	}
	return sb.String()
}

func multipartBody(entries []forms.Entry) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, e := range entries {
		if e.IsFile {
			// File contents are not modeled; the part announces an empty file.
			if _, err := w.CreateFormFile(e.Name, e.Filename); err != nil {
				return nil, "", err
			}
			continue
		}
		if err := w.WriteField(e.Name, normalizeNewlines(e.Value)); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// normalizeNewlines converts lone CR and LF to CRLF.
func normalizeNewlines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
