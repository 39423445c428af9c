package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/handiism/httphelper/internal/endpoint"
	"github.com/handiism/httphelper/internal/helper"
	hlog "github.com/handiism/httphelper/internal/log"
)

// DefaultLogBodyLimit is the number of body bytes LogMiddleware logs.
const DefaultLogBodyLimit = 4096

// LogMiddleware logs requests and responses passing through the helper
// client. At most limit bytes of each body are logged; a non-positive
// limit uses DefaultLogBodyLimit.
//
// Bodies are read only as far as the limit and handed on intact.
func LogMiddleware(logger *slog.Logger, limit int) helper.Middleware {
	if limit <= 0 {
		limit = DefaultLogBodyLimit
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return &logTransport{next: next, logger: logger, limit: limit}
	}
}

type logTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
	limit  int
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	logger := hlog.WithRequestID(t.logger, uuid.NewString())

	ep, _ := endpoint.FromContext(ctx)
	if ep != nil {
		logger = logger.With(hlog.EndpointKey, ep.Name)
	}

	logger.InfoContext(ctx, req.Method+" -> "+req.URL.Redacted())
	logger.DebugContext(ctx, "request headers", "headers", req.Header)

	if req.Body != nil && req.Body != http.NoBody {
		prefix, body, err := peek(req.Body, t.limit)
		if err != nil {
			req.Body.Close()
			return nil, err
		}
		req = req.Clone(ctx)
		req.Body = body
		t.logBody(logger, req, "request body", prefix, req.ContentLength)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		logger.WarnContext(ctx, "request failed", hlog.Error(err), hlog.DurationKey, elapsed)
		return nil, err
	}

	logger.InfoContext(ctx, "response", "status", resp.StatusCode, hlog.DurationKey, elapsed)

	if ep != nil && ep.Streaming {
		logger.DebugContext(ctx, "streaming response")
		return resp, nil
	}

	if resp.Body != nil && resp.Body != http.NoBody {
		prefix, body, err := peek(resp.Body, t.limit)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		resp.Body = body
		t.logBody(logger, req, "response body", prefix, resp.ContentLength)
	}
	return resp, nil
}

func (t *logTransport) logBody(logger *slog.Logger, req *http.Request, msg string, prefix []byte, length int64) {
	ctx := req.Context()
	if !isPlaintext(prefix) {
		logger.DebugContext(ctx, msg, "binary_bytes", length)
		return
	}
	logger.DebugContext(ctx, msg, "body", string(prefix), "truncated", length < 0 || length > int64(len(prefix)))
}

// peek reads up to limit bytes of rc and returns them with a ReadCloser
// that yields the full body again.
func peek(rc io.ReadCloser, limit int) ([]byte, io.ReadCloser, error) {
	buf := make([]byte, limit)
	n, err := io.ReadFull(rc, buf)
	switch err {
	case nil, io.EOF, io.ErrUnexpectedEOF:
	default:
		return nil, nil, err
	}
	buf = buf[:n]
	return buf, &readCloser{Reader: io.MultiReader(bytes.NewReader(buf), rc), Closer: rc}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// isPlaintext reports whether the first runes of b look like text.
func isPlaintext(b []byte) bool {
	if len(b) > 64 {
		b = b[:64]
	}
	for i := 0; i < 16 && len(b) > 0; i++ {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			// A rune cut off by the window still counts as text.
			return !utf8.FullRune(b)
		}
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return false
		}
		b = b[size:]
	}
	return true
}
