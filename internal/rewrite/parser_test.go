package rewrite

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/httphelper/internal/domain"
)

func TestDomainParser_Parse(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		url     string
		offsets int
		want    string
	}{
		{
			name:   "alias to bare host",
			origin: "https://github.com",
			url:    "https://jenly1314.github.io/index.html",
			want:   "https://github.com/index.html",
		},
		{
			name:   "origin with base path",
			origin: "https://api.example.com/v2/",
			url:    "http://localhost/users/1",
			want:   "https://api.example.com/v2/users/1",
		},
		{
			name:   "port is replaced",
			origin: "http://127.0.0.1:8080",
			url:    "https://example.com:8443/a",
			want:   "http://127.0.0.1:8080/a",
		},
		{
			name:   "query and fragment preserved",
			origin: "https://google.com",
			url:    "https://example.com/search?q=a%2Bb&x=%20y#frag",
			want:   "https://google.com/search?q=a%2Bb&x=%20y#frag",
		},
		{
			name:   "escaped path preserved",
			origin: "https://google.com",
			url:    "https://example.com/a%2Fb/c%20d",
			want:   "https://google.com/a%2Fb/c%20d",
		},
		{
			name:   "trailing slash kept",
			origin: "https://google.com/base",
			url:    "https://example.com/a/b/",
			want:   "https://google.com/base/a/b/",
		},
		{
			name:   "user info kept",
			origin: "https://google.com",
			url:    "https://u:p@example.com/a",
			want:   "https://u:p@google.com/a",
		},
		{
			name:   "root",
			origin: "https://google.com",
			url:    "https://example.com",
			want:   "https://google.com/",
		},
		{
			name:    "offset one",
			origin:  "https://domain.com",
			url:     "http://host/a/b/c/",
			offsets: 1,
			want:    "https://domain.com/b/c/",
		},
		{
			name:    "offset two",
			origin:  "https://domain.com",
			url:     "http://host/a/b/c/",
			offsets: 2,
			want:    "https://domain.com/c/",
		},
		{
			name:    "offset drops everything",
			origin:  "https://domain.com",
			url:     "http://host/a/b/c/",
			offsets: 3,
			want:    "https://domain.com/",
		},
		{
			name:    "offset beyond path",
			origin:  "https://domain.com",
			url:     "http://host/a",
			offsets: 5,
			want:    "https://domain.com/",
		},
	}

	p := NewDomainParser(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			require.NoError(t, err)
			before := u.String()

			got := p.Parse(domain.MustParseOrigin(tt.origin), u, tt.offsets)

			if got.String() != tt.want {
				t.Errorf("Parse() = %q, want %q", got.String(), tt.want)
			}
			if u.String() != before {
				t.Errorf("Parse() modified input: %q, was %q", u.String(), before)
			}
		})
	}
}

func TestDomainParser_CachesJoinedPaths(t *testing.T) {
	p := NewDomainParser(2)
	origin := domain.MustParseOrigin("https://github.com/api")

	for _, raw := range []string{"http://h/a", "http://h/a?x=1", "http://h/b", "http://h/c"} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		p.Parse(origin, u, 0)
	}
	assert.Equal(t, 2, p.Len(), "cache is bounded")

	u, _ := url.Parse("http://h/c?x=2")
	assert.Equal(t, "https://github.com/api/c?x=2", p.Parse(origin, u, 0).String())
}

func TestDomainParser_CacheKeysDoNotCollide(t *testing.T) {
	p := NewDomainParser(DefaultCacheSize)

	tests := []struct {
		origin string
		raw    string
		want   string
	}{
		{"https://a.example.com/x_/y", "http://h/z", "https://a.example.com/x_/y/z"},
		{"https://b.example.com/x", "http://h/y_/z", "https://b.example.com/x/y_/z"},
		{"https://c.example.com/x", "http://h/y_1", "https://c.example.com/x/y_1"},
		{"https://c.example.com/x", "http://h/y", "https://c.example.com/x/y"},
	}

	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		require.NoError(t, err)
		if got := p.Parse(domain.MustParseOrigin(tt.origin), u, 0).String(); got != tt.want {
			t.Errorf("Parse(%s, %s) = %s, want %s", tt.origin, tt.raw, got, tt.want)
		}
	}
	assert.Equal(t, len(tests), p.Len())
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		base, req string
		offsets   int
		want      string
	}{
		{"", "", 0, "/"},
		{"", "/", 0, "/"},
		{"/v2", "/a/b/c/", 0, "/v2/a/b/c/"},
		{"//v2//", "/a", 0, "/v2/a"},
		{"", "/a/b/c/", 1, "/b/c/"},
		{"", "/a/b/c/", 3, "/"},
		{"/v2", "/a/b", 2, "/v2/"},
	}

	for _, tt := range tests {
		if got := JoinPath(tt.base, tt.req, tt.offsets); got != tt.want {
			t.Errorf("JoinPath(%q, %q, %d) = %q, want %q", tt.base, tt.req, tt.offsets, got, tt.want)
		}
	}
}

func TestRequest(t *testing.T) {
	p := NewDomainParser(0)

	t.Run("nil origin passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "https://jenly1314.github.io/index.html?a=1", nil)
		assert.False(t, Request(p, nil, 0, req))
		assert.Equal(t, "https://jenly1314.github.io/index.html?a=1", req.URL.String())
		assert.Equal(t, "jenly1314.github.io", req.Host)
	})

	t.Run("rewrites in place", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "https://jenly1314.github.io/index.html?a=1", nil)
		req.Header.Set("X-Test", "1")
		origin := domain.MustParseOrigin("https://github.com")

		require.True(t, Request(p, &origin, 0, req))
		assert.Equal(t, "https://github.com/index.html?a=1", req.URL.String())
		assert.Empty(t, req.Host)
		assert.Equal(t, "1", req.Header.Get("X-Test"))
	})
}

func TestParserFunc(t *testing.T) {
	var called bool
	f := ParserFunc(func(o domain.Origin, u *url.URL, _ int) *url.URL {
		called = true
		return u
	})
	u, _ := url.Parse("http://h/")
	f.Parse(domain.Origin{}, u, 0)
	assert.True(t, called)
}
