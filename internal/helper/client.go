package helper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/handiism/httphelper/internal/endpoint"
	hlog "github.com/handiism/httphelper/internal/log"
	"github.com/handiism/httphelper/internal/metrics"
	"github.com/handiism/httphelper/internal/progress"
	"github.com/handiism/httphelper/internal/rewrite"
	"github.com/handiism/httphelper/internal/variant"
)

// ErrNoEndpoint is returned when a call is made without an endpoint.
var ErrNoEndpoint = errors.New("no endpoint")

// Client sends requests through the helper layer: it resolves endpoint
// markers, rewrites the URL, adds common headers, picks the client
// variant for the resolved timeouts and wraps bodies for progress
// reporting.
//
// A Client is safe for concurrent use.
type Client struct {
	h        *Helper
	base     *url.URL
	defaults variant.Timeouts
	pool     http.RoundTripper
	variants *variant.Cache
}

// Helper returns the Helper the client was built from.
func (c *Client) Helper() *Helper {
	return c.h
}

// Defaults returns the client's default timeouts.
func (c *Client) Defaults() variant.Timeouts {
	return c.defaults
}

// Variants returns the number of distinct timeout variants built so far.
func (c *Client) Variants() int {
	return c.variants.Len()
}

// NewRequest creates a request for ep. The endpoint path is resolved
// against the client's base URL and ep is attached to the request context.
//
// Returns an error if:
//   - ep is nil
//   - The path cannot be parsed
//   - The resolved URL is not absolute
func (c *Client) NewRequest(ctx context.Context, ep *endpoint.Endpoint, body io.Reader) (*http.Request, error) {
	if ep == nil {
		return nil, ErrNoEndpoint
	}

	u, err := url.Parse(ep.Path)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", ep.Name, err)
	}
	if c.base != nil {
		u = c.base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("endpoint %s: %q is not an absolute URL and no base URL is set", ep.Name, ep.Path)
	}

	return http.NewRequestWithContext(endpoint.NewContext(ctx, ep), ep.HTTPMethod(), u.String(), body)
}

// Call creates a request for ep and sends it.
func (c *Client) Call(ctx context.Context, ep *endpoint.Endpoint, body io.Reader) (*http.Response, error) {
	req, err := c.NewRequest(ctx, ep, body)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do sends req. The endpoint, if any, is taken from the request context.
// req itself is not modified.
//
// Transport errors and non-2xx responses are returned unchanged.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	ep, _ := endpoint.FromContext(ctx)

	resolver := endpoint.Resolver{
		Domains:        c.h.domains,
		Defaults:       c.defaults,
		IgnoreTimeouts: !c.h.IsDynamicTimeout(),
	}
	plan := resolver.Resolve(ep)

	out := req.Clone(ctx)
	if rewrite.Request(c.h.urlParser(), plan.Origin, c.h.PathSegmentOffsets(), out) {
		c.h.metrics.RecordRewrite(string(plan.Source))
		c.h.logger.DebugContext(ctx, "request rewritten",
			hlog.EndpointKey, endpointName(ep),
			hlog.SourceKey, plan.Source,
			hlog.OriginKey, plan.Origin.String(),
			hlog.URLKey, out.URL.Redacted(),
		)
	}
	c.h.headers.apply(out.Header)

	opts := c.bodyOptions()
	if plan.RequestKey != "" {
		c.wrapRequestBody(out, plan.RequestKey, opts)
	}

	timeouts := c.defaults
	if plan.Timeouts != nil {
		timeouts = *plan.Timeouts
		c.h.logger.DebugContext(ctx, "endpoint timeouts",
			hlog.EndpointKey, endpointName(ep),
			hlog.TimeoutsKey, timeouts.String(),
		)
	}
	resp, err := c.variants.Obtain(timeouts).Do(out)
	if err != nil {
		return nil, err
	}

	if plan.ResponseKey != "" && resp.Body != nil {
		resp.Body = progress.NewBody(resp.Body, resp.ContentLength, plan.ResponseKey,
			c.h.dispatcher(c.h.responses, metrics.DirectionResponse), opts...)
	}
	return resp, nil
}

// CloseIdleConnections closes idle connections of the shared pool.
func (c *Client) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if ci, ok := c.pool.(closeIdler); ok {
		ci.CloseIdleConnections()
	}
}

func (c *Client) bodyOptions() []progress.BodyOption {
	if d := c.h.ProgressUpdateInterval(); d > 0 {
		return []progress.BodyOption{progress.WithInterval(d)}
	}
	return nil
}

func (c *Client) wrapRequestBody(req *http.Request, key string, opts []progress.BodyOption) {
	if req.Body == nil || req.Body == http.NoBody {
		return
	}
	total := req.ContentLength
	if total <= 0 {
		total = -1
	}
	d := c.h.dispatcher(c.h.requests, metrics.DirectionRequest)

	req.Body = progress.NewBody(req.Body, total, key, d, opts...)
	if getBody := req.GetBody; getBody != nil {
		req.GetBody = func() (io.ReadCloser, error) {
			rc, err := getBody()
			if err != nil {
				return nil, err
			}
			return progress.NewBody(rc, total, key, d, opts...), nil
		}
	}
}

func endpointName(ep *endpoint.Endpoint) string {
	if ep == nil {
		return ""
	}
	return ep.Name
}
