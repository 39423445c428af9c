package endpoint

import (
	"context"
	"net/http"
	"time"
)

// Timeout is the per-endpoint timeout marker. A zero field inherits the
// client's default for that dimension.
type Timeout struct {
	Connect time.Duration
	Read    time.Duration
	Write   time.Duration
}

// Endpoint is the static declaration of one API call and its markers.
//
// Endpoints are declared once, typically as package-level values, and are
// never modified afterwards:
//
//	var GetUser = &endpoint.Endpoint{
//	    Name:    "getUser",
//	    Method:  http.MethodGet,
//	    Path:    "users/current",
//	    Domain:  "accounts",
//	    Timeout: &endpoint.Timeout{Read: 30 * time.Second},
//	}
type Endpoint struct {
	// Name identifies the endpoint in logs.
	Name string

	// Method is the HTTP method. Empty means GET.
	Method string

	// Path is resolved against the client's base URL. It may carry a query
	// string, or be an absolute URL.
	Path string

	// BaseURL is the explicit origin marker. When set and parseable it
	// always wins over Domain and the global override.
	BaseURL string

	// Domain is the alias marker, looked up in the domain registry at call
	// time.
	Domain string

	// Timeout overrides the client's default timeouts.
	Timeout *Timeout

	// ResponseProgress is the listener key for download progress.
	ResponseProgress string

	// RequestProgress is the listener key for upload progress.
	RequestProgress string

	// Streaming marks endpoints whose response body must not be buffered,
	// e.g. by logging middleware.
	Streaming bool
}

// HTTPMethod returns Method, defaulting to GET.
func (e *Endpoint) HTTPMethod() string {
	if e.Method == "" {
		return http.MethodGet
	}
	return e.Method
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying ep.
func NewContext(ctx context.Context, ep *Endpoint) context.Context {
	return context.WithValue(ctx, contextKey{}, ep)
}

// FromContext returns the endpoint stored in ctx, if any.
func FromContext(ctx context.Context) (*Endpoint, bool) {
	ep, ok := ctx.Value(contextKey{}).(*Endpoint)
	return ep, ok && ep != nil
}
