package helper

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/handiism/httphelper/internal/domain"
	"github.com/handiism/httphelper/internal/variant"
)

// DefaultTimeout is the default connect, read and write timeout.
const DefaultTimeout = 10 * time.Second

// Middleware wraps the transport beneath the helper layer. Middleware sees
// requests after their URL has been rewritten and with their endpoint
// still in the request context.
type Middleware func(http.RoundTripper) http.RoundTripper

// ClientBuilder configures a Client. Obtain one from
// Helper.CreateClientBuilder.
//
// Example:
//
//	client, err := h.CreateClientBuilder().
//	    BaseURL("https://jenly1314.github.io").
//	    ReadTimeout(30 * time.Second).
//	    Use(httphelper.LogMiddleware(logger)).
//	    Build()
type ClientBuilder struct {
	h *Helper

	baseURL  string
	timeouts variant.Timeouts

	maxIdleConns        int
	maxIdleConnsPerHost int
	idleConnTimeout     time.Duration
	tlsHandshakeTimeout time.Duration

	middleware    []Middleware
	transport     http.RoundTripper
	jar           http.CookieJar
	checkRedirect func(req *http.Request, via []*http.Request) error
}

// CreateClientBuilder returns a builder for a Client backed by h.
func (h *Helper) CreateClientBuilder() *ClientBuilder {
	return &ClientBuilder{
		h:                   h,
		timeouts:            variant.Uniform(DefaultTimeout),
		maxIdleConns:        100,
		maxIdleConnsPerHost: 10,
		idleConnTimeout:     90 * time.Second,
		tlsHandshakeTimeout: DefaultTimeout,
	}
}

// BaseURL sets the static base URL that endpoint paths are resolved
// against. Without one, endpoint paths must be absolute URLs.
func (b *ClientBuilder) BaseURL(raw string) *ClientBuilder {
	b.baseURL = raw
	return b
}

// Timeouts sets the default connect, read and write timeouts.
func (b *ClientBuilder) Timeouts(t variant.Timeouts) *ClientBuilder {
	b.timeouts = t
	return b
}

// ConnectTimeout sets the default connect timeout.
func (b *ClientBuilder) ConnectTimeout(d time.Duration) *ClientBuilder {
	b.timeouts.Connect = d
	return b
}

// ReadTimeout sets the default read timeout.
func (b *ClientBuilder) ReadTimeout(d time.Duration) *ClientBuilder {
	b.timeouts.Read = d
	return b
}

// WriteTimeout sets the default write timeout.
func (b *ClientBuilder) WriteTimeout(d time.Duration) *ClientBuilder {
	b.timeouts.Write = d
	return b
}

// Pool configures the shared connection pool.
func (b *ClientBuilder) Pool(maxIdle, maxIdlePerHost int, idleTimeout time.Duration) *ClientBuilder {
	b.maxIdleConns = maxIdle
	b.maxIdleConnsPerHost = maxIdlePerHost
	b.idleConnTimeout = idleTimeout
	return b
}

// TLSHandshakeTimeout sets the TLS handshake timeout of the shared pool.
func (b *ClientBuilder) TLSHandshakeTimeout(d time.Duration) *ClientBuilder {
	b.tlsHandshakeTimeout = d
	return b
}

// Use appends middleware. The first middleware added is the outermost.
func (b *ClientBuilder) Use(mw ...Middleware) *ClientBuilder {
	b.middleware = append(b.middleware, mw...)
	return b
}

// Transport replaces the pooled http.Transport the builder would create.
// Connect timeouts are then only enforced if rt dials with
// variant.DialContext.
func (b *ClientBuilder) Transport(rt http.RoundTripper) *ClientBuilder {
	b.transport = rt
	return b
}

// Jar sets the cookie jar shared by every variant.
func (b *ClientBuilder) Jar(jar http.CookieJar) *ClientBuilder {
	b.jar = jar
	return b
}

// CheckRedirect sets the redirect policy shared by every variant.
func (b *ClientBuilder) CheckRedirect(fn func(req *http.Request, via []*http.Request) error) *ClientBuilder {
	b.checkRedirect = fn
	return b
}

// Build creates the Client.
//
// Returns an error if the base URL is set but is not an absolute http or
// https URL.
func (b *ClientBuilder) Build() (*Client, error) {
	var base *url.URL
	if b.baseURL != "" {
		u, err := url.Parse(strings.TrimSpace(b.baseURL))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", domain.ErrInvalidOrigin, b.baseURL, err)
		}
		if _, err := domain.FromURL(u); err != nil {
			return nil, err
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
			if u.RawPath != "" {
				u.RawPath += "/"
			}
		}
		base = u
	}

	pool := b.transport
	if pool == nil {
		dialer := &net.Dialer{KeepAlive: 30 * time.Second}
		pool = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           variant.DialContext(dialer),
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          b.maxIdleConns,
			MaxIdleConnsPerHost:   b.maxIdleConnsPerHost,
			IdleConnTimeout:       b.idleConnTimeout,
			TLSHandshakeTimeout:   b.tlsHandshakeTimeout,
			ExpectContinueTimeout: time.Second,
		}
	}

	rt := pool
	for i := len(b.middleware) - 1; i >= 0; i-- {
		rt = b.middleware[i](rt)
	}

	h := b.h
	variants := variant.NewCache(
		&http.Client{Transport: rt, Jar: b.jar, CheckRedirect: b.checkRedirect},
		variant.WithLookupHook(func(_ variant.Timeouts, hit bool) {
			h.metrics.RecordVariantLookup(hit)
		}),
	)

	return &Client{
		h:        h,
		base:     base,
		defaults: b.timeouts,
		pool:     pool,
		variants: variants,
	}, nil
}
