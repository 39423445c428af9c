package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidOrigin is returned when a string cannot be used as an origin.
var ErrInvalidOrigin = errors.New("invalid origin")

// Origin is the addressable root a request is sent to.
//
// An Origin is a plain value: copies are independent and nothing in this
// package mutates one after construction.
type Origin struct {
	// Scheme is "http" or "https".
	Scheme string

	// Host is the host name, including ":port" when the port is explicit.
	Host string

	// BasePath is the escaped path prefix, without a trailing slash.
	// Empty when the origin is just scheme://host.
	BasePath string
}

// ParseOrigin parses a URL such as "https://api.example.com:8443/v2/" into
// an Origin. Query and fragment are ignored.
//
// Returns ErrInvalidOrigin (wrapped) if:
//   - The string is not a URL
//   - The scheme is not http or https
//   - The host is empty
func ParseOrigin(raw string) (Origin, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Origin{}, fmt.Errorf("%w: %q: %v", ErrInvalidOrigin, raw, err)
	}
	return FromURL(u)
}

// MustParseOrigin is like ParseOrigin but panics on error.
// Use it for compile-time constants only.
func MustParseOrigin(raw string) Origin {
	o, err := ParseOrigin(raw)
	if err != nil {
		panic(err)
	}
	return o
}

// FromURL builds an Origin from the scheme, host and path of u.
func FromURL(u *url.URL) (Origin, error) {
	if u == nil {
		return Origin{}, fmt.Errorf("%w: nil url", ErrInvalidOrigin)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Origin{}, fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidOrigin, u.Scheme)
	}
	if u.Host == "" {
		return Origin{}, fmt.Errorf("%w: missing host in %q", ErrInvalidOrigin, u.String())
	}
	return Origin{
		Scheme:   scheme,
		Host:     u.Host,
		BasePath: strings.TrimSuffix(u.EscapedPath(), "/"),
	}, nil
}

// IsZero reports whether o is the zero Origin.
func (o Origin) IsZero() bool {
	return o == Origin{}
}

// String returns the origin as a URL string, e.g. "https://github.com/api".
func (o Origin) String() string {
	if o.IsZero() {
		return ""
	}
	return o.Scheme + "://" + o.Host + o.BasePath
}

// URL returns the origin as a *url.URL.
func (o Origin) URL() *url.URL {
	u := &url.URL{Scheme: o.Scheme, Host: o.Host}
	if o.BasePath != "" {
		u.RawPath = o.BasePath
		if p, err := url.PathUnescape(o.BasePath); err == nil {
			u.Path = p
		} else {
			u.Path = o.BasePath
		}
	}
	return u
}
