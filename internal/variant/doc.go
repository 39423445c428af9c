// Package variant builds and caches http.Client variants that differ only in
// their connect/read/write timeouts.
//
// Every variant shares one underlying http.Transport, so switching timeouts
// per endpoint never fragments the connection pool:
//
//	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
//	base := &http.Client{Transport: &http.Transport{DialContext: variant.DialContext(dialer)}}
//
//	cache := variant.NewCache(base)
//	fast := cache.Obtain(variant.Uniform(5 * time.Second))
//	slow := cache.Obtain(variant.Timeouts{Connect: 10 * time.Second, Read: time.Minute})
//
// Timeouts are idle timeouts. A request that stalls past its read or write
// timeout fails with an error matching ErrReadTimeout or ErrWriteTimeout.
package variant
