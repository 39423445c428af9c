package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/handiism/httphelper/internal/endpoint"
	"github.com/handiism/httphelper/internal/helper"
)

// ErrNoEndpoint is returned when a call is made without an endpoint.
var ErrNoEndpoint = helper.ErrNoEndpoint

// StatusError is returned for responses with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Status)
}

// Client wraps a helper.Client with convenience calls for text, sizes and
// file downloads.
//
// Client provides:
//   - Configured User-Agent header
//   - Status checking with StatusError
//   - File download streamed to disk
//   - File size retrieval via HEAD requests
//
// Progress is reported through the helper's listeners for the endpoint's
// ResponseProgress key.
//
// Example usage:
//
//	client := NewClient(hc)
//
//	// Fetch HTML content
//	html, err := client.GetString(ctx, api.Request2)
//
//	// Download file with progress
//	h.AddResponseListener(api.ResponseProgress1, func(e progress.Event) {
//	    fmt.Printf("%.1f%%\n", e.Percent())
//	})
//	err = client.DownloadFile(ctx, api.Download, "/tmp/javadoc.jar")
type Client struct {
	client    *helper.Client
	userAgent string
}

// NewClient creates a Client sending through c.
//
// The client sends an "httphelper" User-Agent header unless the helper
// already adds one.
func NewClient(c *helper.Client) *Client {
	return &Client{
		client:    c,
		userAgent: "httphelper",
	}
}

// Helper returns the underlying helper client.
func (c *Client) Helper() *helper.Client {
	return c.client
}

// Do sends a request for ep and checks the status.
//
// Returns an error if:
//   - ep is nil
//   - The request fails
//   - The response status is not 2xx
//
// On success the caller must close the response body.
func (c *Client) Do(ctx context.Context, method string, ep *endpoint.Endpoint, body io.Reader) (*http.Response, error) {
	if ep == nil {
		return nil, ErrNoEndpoint
	}
	req, err := c.client.NewRequest(ctx, ep, body)
	if err != nil {
		return nil, err
	}
	if method != "" {
		req.Method = method
	}
	if req.Header.Get("User-Agent") == "" && c.client.Helper().Headers().Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{Endpoint: ep.Name, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

// Get performs the endpoint's request and returns the response body.
//
// Example:
//
//	data, err := client.Get(ctx, api.Request1)
func (c *Client) Get(ctx context.Context, ep *endpoint.Endpoint) ([]byte, error) {
	resp, err := c.Do(ctx, "", ep, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// GetString is Get returning the body as a string.
func (c *Client) GetString(ctx context.Context, ep *endpoint.Endpoint) (string, error) {
	body, err := c.Get(ctx, ep)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetFileSize returns the size of the endpoint's resource via a HEAD
// request.
//
// Returns an error if the request fails or the server doesn't return a
// Content-Length header.
func (c *Client) GetFileSize(ctx context.Context, ep *endpoint.Endpoint) (int64, error) {
	resp, err := c.Do(ctx, http.MethodHead, ep, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("no Content-Length header for %s", ep.Name)
	}
	return resp.ContentLength, nil
}

// DownloadFile streams the endpoint's response to destPath and returns the
// number of bytes written.
//
// The file is created (or truncated if it exists). On failure the partial
// file is removed.
func (c *Client) DownloadFile(ctx context.Context, ep *endpoint.Endpoint, destPath string) (int64, error) {
	resp, err := c.Do(ctx, "", ep, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	file, err := os.Create(destPath)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(file, resp.Body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(destPath)
		return n, err
	}
	return n, nil
}
