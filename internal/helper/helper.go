package helper

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/handiism/httphelper/internal/domain"
	hlog "github.com/handiism/httphelper/internal/log"
	"github.com/handiism/httphelper/internal/metrics"
	"github.com/handiism/httphelper/internal/progress"
	"github.com/handiism/httphelper/internal/rewrite"
)

// Helper is the process-scoped state shared by every Client built from it:
// domain aliases, the global base URL, common headers and progress
// listeners.
//
// All methods are safe for concurrent use and take effect for the next
// request any Client sends, including requests on clients built earlier.
//
// Example usage:
//
//	h := helper.New(helper.WithLogger(logger))
//	h.PutDomain("github", "https://github.com")
//	h.AddResponseListener("download", func(e progress.Event) {
//	    fmt.Printf("%d / %d\n", e.BytesRead, e.TotalBytes)
//	})
//
//	client, err := h.CreateClientBuilder().
//	    BaseURL("https://jenly1314.github.io").
//	    Build()
type Helper struct {
	domains   *domain.Registry
	headers   *headerStore
	responses *progress.Registry
	requests  *progress.Registry

	parserMu sync.RWMutex
	parser   rewrite.Parser

	offsets        atomic.Int64
	dynamicTimeout atomic.Bool
	interval       atomic.Int64

	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures a Helper.
type Option func(*Helper)

// WithLogger sets the logger used for request rewriting diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Helper) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics records rewrites, variant lookups and progress events in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(h *Helper) {
		h.metrics = c
	}
}

// WithURLParser replaces the default URL parser.
func WithURLParser(p rewrite.Parser) Option {
	return func(h *Helper) {
		if p != nil {
			h.parser = p
		}
	}
}

// New creates a Helper with dynamic domains and dynamic timeouts enabled.
func New(opts ...Option) *Helper {
	h := &Helper{
		domains:   domain.NewRegistry(),
		headers:   newHeaderStore(),
		responses: progress.NewRegistry(),
		requests:  progress.NewRegistry(),
		parser:    rewrite.NewDomainParser(rewrite.DefaultCacheSize),
		logger:    slog.New(slog.DiscardHandler),
	}
	h.dynamicTimeout.Store(true)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Domains returns the domain registry backing the helper.
func (h *Helper) Domains() *domain.Registry {
	return h.domains
}

// PutDomain registers origin under alias, replacing any previous origin.
//
// Returns an error wrapping domain.ErrInvalidOrigin if origin is not an
// absolute http or https URL; the registry is left unchanged.
func (h *Helper) PutDomain(alias, origin string) error {
	if err := h.domains.PutURL(alias, origin); err != nil {
		return err
	}
	h.logger.Debug("domain registered", hlog.AliasKey, alias, hlog.OriginKey, origin)
	return nil
}

// PutDomainOrigin registers an already parsed origin under alias.
func (h *Helper) PutDomainOrigin(alias string, origin domain.Origin) {
	h.domains.Put(alias, origin)
}

// RemoveDomain drops alias.
func (h *Helper) RemoveDomain(alias string) {
	h.domains.Remove(alias)
}

// ClearDomain drops every alias. The global base URL is kept.
func (h *Helper) ClearDomain() {
	h.domains.Clear()
}

// DomainURL returns the origin registered under alias.
func (h *Helper) DomainURL(alias string) (domain.Origin, bool) {
	return h.domains.Get(alias)
}

// SetBaseURL sets the global override origin. It applies to requests
// whose endpoint declares neither an explicit origin nor a domain alias.
func (h *Helper) SetBaseURL(origin string) error {
	if err := h.domains.SetGlobalURL(origin); err != nil {
		return err
	}
	h.logger.Debug("global base url set", hlog.OriginKey, origin)
	return nil
}

// RemoveBaseURL clears the global override origin.
func (h *Helper) RemoveBaseURL() {
	h.domains.ClearGlobal()
}

// BaseURL returns the global override origin, if set.
func (h *Helper) BaseURL() (domain.Origin, bool) {
	return h.domains.Global()
}

// SetDynamicDomain turns alias and global base URL rewriting on or off.
// Explicit origins on endpoints always apply.
func (h *Helper) SetDynamicDomain(enabled bool) {
	h.domains.SetDynamic(enabled)
}

// IsDynamicDomain reports whether alias and global rewriting is on.
func (h *Helper) IsDynamicDomain() bool {
	return h.domains.Dynamic()
}

// SetDynamicTimeout turns per-endpoint timeout overrides on or off.
func (h *Helper) SetDynamicTimeout(enabled bool) {
	h.dynamicTimeout.Store(enabled)
}

// IsDynamicTimeout reports whether per-endpoint timeouts are honored.
func (h *Helper) IsDynamicTimeout() bool {
	return h.dynamicTimeout.Load()
}

// SetPathSegmentOffsets sets how many leading path segments of a request
// are dropped when its origin is rewritten:
//
//	0: http://host/a/b/c/ -> http://domain/a/b/c/
//	1: http://host/a/b/c/ -> http://domain/b/c/
//	3: http://host/a/b/c/ -> http://domain/
func (h *Helper) SetPathSegmentOffsets(n int) {
	h.offsets.Store(int64(max(n, 0)))
}

// PathSegmentOffsets returns the current path segment offset.
func (h *Helper) PathSegmentOffsets() int {
	return int(h.offsets.Load())
}

// SetURLParser replaces the parser used to rewrite request URLs.
// A nil parser is ignored.
func (h *Helper) SetURLParser(p rewrite.Parser) {
	if p == nil {
		return
	}
	h.parserMu.Lock()
	defer h.parserMu.Unlock()
	h.parser = p
}

func (h *Helper) urlParser() rewrite.Parser {
	h.parserMu.RLock()
	defer h.parserMu.RUnlock()
	return h.parser
}

// SetProgressUpdateInterval limits intermediate progress events to one
// per interval per body. Zero reports every read.
func (h *Helper) SetProgressUpdateInterval(d time.Duration) {
	h.interval.Store(int64(max(d, 0)))
}

// ProgressUpdateInterval returns the current progress update interval.
func (h *Helper) ProgressUpdateInterval() time.Duration {
	return time.Duration(h.interval.Load())
}

// AddResponseListener registers l for response bodies whose endpoint
// carries key as its ResponseProgress marker. An existing listener for key
// is replaced.
func (h *Helper) AddResponseListener(key string, l progress.Listener) {
	h.responses.Add(key, l)
}

// RemoveResponseListener drops the response listener for key.
func (h *Helper) RemoveResponseListener(key string) {
	h.responses.Remove(key)
}

// ResponseListener returns the response listener registered for key.
func (h *Helper) ResponseListener(key string) (progress.Listener, bool) {
	return h.responses.Lookup(key)
}

// ClearResponseListener drops every response listener.
func (h *Helper) ClearResponseListener() {
	h.responses.Clear()
}

// AddRequestListener registers l for request bodies whose endpoint carries
// key as its RequestProgress marker.
func (h *Helper) AddRequestListener(key string, l progress.Listener) {
	h.requests.Add(key, l)
}

// RemoveRequestListener drops the request listener for key.
func (h *Helper) RemoveRequestListener(key string) {
	h.requests.Remove(key)
}

// ClearRequestListener drops every request listener.
func (h *Helper) ClearRequestListener() {
	h.requests.Clear()
}

// ClearListener drops every request and response listener. Bodies still
// being read stop reporting to the dropped listeners.
func (h *Helper) ClearListener() {
	h.requests.Clear()
	h.responses.Clear()
}

// dispatcher forwards events to reg and records them in the collector.
func (h *Helper) dispatcher(reg *progress.Registry, direction string) progress.Dispatcher {
	if h.metrics == nil {
		return reg
	}
	return progress.DispatcherFunc(func(key string, e progress.Event) {
		kind := metrics.KindProgress
		switch {
		case e.Failed():
			kind = metrics.KindFailed
		case e.Completed:
			kind = metrics.KindCompleted
		}
		h.metrics.RecordProgressEvent(direction, kind)
		if kind != metrics.KindProgress {
			h.metrics.AddProgressBytes(direction, e.BytesRead)
		}
		reg.Dispatch(key, e)
	})
}
