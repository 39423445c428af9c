// Package http provides convenience calls and logging on top of the
// helper client.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Non-2xx statuses as *StatusError
//   - File downloads streamed to disk
//   - File size retrieval via HEAD requests
//
// # Basic Usage
//
//	hc, _ := h.CreateClientBuilder().
//	    BaseURL(api.BaseURL).
//	    Use(http.LogMiddleware(logger, 0)).
//	    Build()
//	client := http.NewClient(hc)
//
//	html, err := client.GetString(ctx, api.Request1)
//
// # Logging
//
// LogMiddleware logs each exchange with a request id: method and URL at
// info level, headers and plaintext bodies at debug level. Responses of
// streaming endpoints are not read.
package http
