// Package helper is the entry point of httphelper. A Helper owns the
// shared registries; a Client built from it sends requests through the
// helper layer.
//
// Per request, a Client:
//   - resolves the endpoint's markers against the current domain registry
//   - rewrites the request URL to the resolved origin
//   - adds the common headers
//   - wraps the request body when the endpoint has a RequestProgress key
//   - sends it through the client variant for the resolved timeouts
//   - wraps the response body when the endpoint has a ResponseProgress key
//
// Variants share one connection pool. Changing aliases or the base URL
// never rebuilds a client.
package helper
