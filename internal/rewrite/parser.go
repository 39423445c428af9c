package rewrite

import (
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/handiism/httphelper/internal/domain"
)

// DefaultCacheSize is the number of rewritten paths a DomainParser keeps.
const DefaultCacheSize = 100

// Parser rewrites a request URL so that it points at origin.
//
// offsets is the number of leading path segments of u to drop before the
// origin's base path is prepended. Implementations must not modify u.
type Parser interface {
	Parse(origin domain.Origin, u *url.URL, offsets int) *url.URL
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(origin domain.Origin, u *url.URL, offsets int) *url.URL

// Parse calls f.
func (f ParserFunc) Parse(origin domain.Origin, u *url.URL, offsets int) *url.URL {
	return f(origin, u, offsets)
}

// DomainParser is the default Parser. It swaps scheme and host for the
// origin's, joins the origin base path with the request path and keeps
// user info, query and fragment exactly as they were.
//
// Joined paths are cached by origin base path, request path and offsets.
// A DomainParser is safe for concurrent use.
type DomainParser struct {
	cache *lru.Cache
}

// NewDomainParser creates a DomainParser caching up to size paths.
// A size below one uses DefaultCacheSize.
func NewDomainParser(size int) *DomainParser {
	if size < 1 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &DomainParser{cache: cache}
}

// Parse implements Parser.
func (p *DomainParser) Parse(origin domain.Origin, u *url.URL, offsets int) *url.URL {
	out := *u
	out.Scheme = origin.Scheme
	out.Host = origin.Host
	out.Opaque = ""

	reqPath := u.EscapedPath()
	key := pathKey{base: origin.BasePath, path: reqPath, offsets: offsets}

	escaped, ok := p.lookup(key)
	if !ok {
		escaped = JoinPath(origin.BasePath, reqPath, offsets)
		p.cache.Add(key, escaped)
	}

	setEscapedPath(&out, escaped)
	return &out
}

// Len returns the number of cached paths.
func (p *DomainParser) Len() int {
	return p.cache.Len()
}

func (p *DomainParser) lookup(key pathKey) (string, bool) {
	v, ok := p.cache.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// pathKey identifies a joined path in the cache.
type pathKey struct {
	base    string
	path    string
	offsets int
}

// JoinPath joins an escaped base path with an escaped request path after
// dropping the first offsets segments of the request path.
//
// Empty base segments are dropped. The request path's segments, including
// a trailing slash, are kept as they are:
//
//	JoinPath("/v2", "/a/b/c/", 0) == "/v2/a/b/c/"
//	JoinPath("", "/a/b/c/", 1)    == "/b/c/"
//	JoinPath("", "/a/b/c/", 3)    == "/"
func JoinPath(basePath, reqPath string, offsets int) string {
	var segments []string
	for _, s := range strings.Split(basePath, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	req := strings.Split(strings.TrimPrefix(reqPath, "/"), "/")
	if offsets > 0 {
		req = req[min(offsets, len(req)):]
	}
	if len(req) == 0 {
		req = []string{""}
	}
	segments = append(segments, req...)

	return "/" + strings.Join(segments, "/")
}

func setEscapedPath(u *url.URL, escaped string) {
	path, err := url.PathUnescape(escaped)
	if err != nil {
		u.Path, u.RawPath = escaped, ""
		return
	}
	u.Path = path
	if path == escaped {
		u.RawPath = ""
	} else {
		u.RawPath = escaped
	}
}
