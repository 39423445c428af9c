package variant

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Cache hands out one *http.Client per Timeouts triple.
//
// All variants share the base client's Transport, so they draw from one
// connection pool; only the timeouts differ. Variants are built lazily and
// kept for the life of the Cache. Concurrent misses for the same triple are
// collapsed with singleflight, so exactly one client is built per triple.
type Cache struct {
	base *http.Client

	mu      sync.RWMutex
	clients map[Timeouts]*http.Client

	group  singleflight.Group
	builds atomic.Int64

	onLookup func(t Timeouts, hit bool)
}

// Option configures a Cache.
type Option func(*Cache)

// WithLookupHook registers fn to be called after every Obtain with whether
// the triple was already cached.
func WithLookupHook(fn func(t Timeouts, hit bool)) Option {
	return func(c *Cache) { c.onLookup = fn }
}

// NewCache creates a Cache deriving its variants from base.
// A nil base behaves like an empty http.Client.
func NewCache(base *http.Client, opts ...Option) *Cache {
	if base == nil {
		base = &http.Client{}
	}
	c := &Cache{
		base:    base,
		clients: make(map[Timeouts]*http.Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Obtain returns the client for t, building it on first use.
func (c *Cache) Obtain(t Timeouts) *http.Client {
	if cl, ok := c.lookup(t); ok {
		c.observe(t, true)
		return cl
	}

	v, _, _ := c.group.Do(key(t), func() (any, error) {
		// A flight for t may have completed between lookup and Do.
		if cl, ok := c.lookup(t); ok {
			return cl, nil
		}
		cl := c.build(t)

		c.mu.Lock()
		c.clients[t] = cl
		c.mu.Unlock()
		return cl, nil
	})
	c.observe(t, false)
	return v.(*http.Client)
}

// Len returns the number of cached variants.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}

// Builds returns how many variants have been constructed.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}

// Base returns the client variants are derived from.
func (c *Cache) Base() *http.Client {
	return c.base
}

func (c *Cache) lookup(t Timeouts) (*http.Client, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cl, ok := c.clients[t]
	return cl, ok
}

func (c *Cache) build(t Timeouts) *http.Client {
	c.builds.Add(1)
	return &http.Client{
		Transport:     &Transport{Base: c.base.Transport, Timeouts: t},
		CheckRedirect: c.base.CheckRedirect,
		Jar:           c.base.Jar,
		Timeout:       c.base.Timeout,
	}
}

func (c *Cache) observe(t Timeouts, hit bool) {
	if c.onLookup != nil {
		c.onLookup(t, hit)
	}
}

func key(t Timeouts) string {
	return fmt.Sprintf("%d/%d/%d", t.Connect, t.Read, t.Write)
}
