// internal/browser/network/compression.go
package network

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// AcceptEncoding is advertised on every request that does not set its own.
const AcceptEncoding = "br, gzip, deflate"

var (
	gzipPool   = sync.Pool{New: func() any { return new(gzip.Reader) }}
	brotliPool = sync.Pool{New: func() any { return brotli.NewReader(nil) }}

	drained = strings.NewReader("")
)

// decoder wraps body in a decompressing reader. release, when non-nil, hands
// pooled state back once the response body is closed.
type decoder func(body io.Reader) (r io.ReadCloser, release func(), err error)

var decoders = map[string]decoder{
	"gzip":   decodeGzip,
	"x-gzip": decodeGzip,
	"br":     decodeBrotli,
	"deflate": func(body io.Reader) (io.ReadCloser, func(), error) {
		r, err := decodeDeflate(body)
		return r, nil, err
	},
}

func decodeGzip(body io.Reader) (io.ReadCloser, func(), error) {
	zr := gzipPool.Get().(*gzip.Reader)
	if err := zr.Reset(body); err != nil {
		gzipPool.Put(zr)
		return nil, nil, err
	}
	return zr, func() {
		_ = zr.Reset(drained)
		gzipPool.Put(zr)
	}, nil
}

func decodeBrotli(body io.Reader) (io.ReadCloser, func(), error) {
	br := brotliPool.Get().(*brotli.Reader)
	if err := br.Reset(body); err != nil {
		brotliPool.Put(br)
		return nil, nil, err
	}
	return io.NopCloser(br), func() {
		_ = br.Reset(drained)
		brotliPool.Put(br)
	}, nil
}

// decodeDeflate accepts both zlib-wrapped and raw deflate streams. Servers
// disagree on what "deflate" means, so the zlib header is sniffed first.
func decodeDeflate(body io.Reader) (io.ReadCloser, error) {
	buffered := bufio.NewReader(body)
	header, err := buffered.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(header) == 2 && isZlibHeader(header[0], header[1]) {
		return zlib.NewReader(buffered)
	}
	return flate.NewReader(buffered), nil
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// decodedBody closes the decoder, releases pooled state and closes the
// wrapped body exactly once.
type decodedBody struct {
	io.ReadCloser
	inner   io.ReadCloser
	release func()
	once    sync.Once
	err     error
}

func (b *decodedBody) Close() error {
	b.once.Do(func() {
		errDecoder := b.ReadCloser.Close()
		if b.release != nil {
			b.release()
		}
		b.err = errors.Join(errDecoder, b.inner.Close())
	})
	return b.err
}

// DecompressResponse replaces resp.Body with a reader that undoes every
// Content-Encoding layer, last applied first. On success the encoding and
// length headers are dropped and resp.Uncompressed is set. On error the
// body may be partially consumed and the caller must discard the response.
func DecompressResponse(resp *http.Response) error {
	if resp == nil || resp.Body == nil {
		return nil
	}
	var layers []string
	for _, v := range resp.Header.Values("Content-Encoding") {
		for _, part := range strings.Split(v, ",") {
			layers = append(layers, strings.ToLower(strings.TrimSpace(part)))
		}
	}
	if len(layers) == 0 {
		return nil
	}

	for i := len(layers) - 1; i >= 0; i-- {
		name := layers[i]
		if name == "" || name == "identity" {
			continue
		}
		decode, ok := decoders[name]
		if !ok {
			return fmt.Errorf("unsupported content encoding %q", name)
		}
		r, release, err := decode(resp.Body)
		if err != nil {
			return fmt.Errorf("%s decoder: %w", name, err)
		}
		resp.Body = &decodedBody{ReadCloser: r, inner: resp.Body, release: release}
	}

	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// DecompressingTransport negotiates compressed responses and hands callers
// plain bodies.
type DecompressingTransport struct {
	Base http.RoundTripper
}

// NewDecompressingTransport wraps base, or http.DefaultTransport when base is nil.
func NewDecompressingTransport(base http.RoundTripper) *DecompressingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DecompressingTransport{Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *DecompressingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", AcceptEncoding)
	}
	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if err := DecompressResponse(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("decompressing response from %s: %w", req.URL.Redacted(), err)
	}
	return resp, nil
}
