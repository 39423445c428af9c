// Package rewrite points request URLs at a resolved origin.
//
// Only scheme, host, port and base path change. Resource path, query,
// fragment and user info are carried over in their escaped form, so an
// already-encoded query such as "q=a%2Bb" is never re-encoded.
package rewrite
