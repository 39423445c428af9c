package rewrite

import (
	"net/http"

	"github.com/handiism/httphelper/internal/domain"
)

// Request points req's URL at origin in place and reports whether it did.
// A nil or zero origin leaves req untouched.
//
// The Host field is cleared so that the transport uses the new URL host.
// Callers that do not own req must clone it first.
func Request(p Parser, origin *domain.Origin, offsets int, req *http.Request) bool {
	if origin == nil || origin.IsZero() || req.URL == nil {
		return false
	}
	req.URL = p.Parse(*origin, req.URL, offsets)
	req.Host = ""
	return true
}
