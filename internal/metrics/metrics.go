// Package metrics exposes Prometheus counters for request rewriting, client
// variant lookups and progress reporting.
//
// A nil *Collector is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Progress directions.
const (
	DirectionRequest  = "request"
	DirectionResponse = "response"
)

// Progress event kinds.
const (
	KindProgress  = "progress"
	KindCompleted = "completed"
	KindFailed    = "failed"
)

// Collector holds the httphelper metric vectors.
type Collector struct {
	rewritten      *prometheus.CounterVec
	variantLookups *prometheus.CounterVec
	progressEvents *prometheus.CounterVec
	progressBytes  *prometheus.CounterVec
}

// New registers the httphelper metrics with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		// rewritten tracks requests whose origin was replaced, by rule
		rewritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httphelper_requests_rewritten_total",
				Help: "Total requests whose origin was rewritten, by resolution source",
			},
			[]string{"source"},
		),
		// variantLookups tracks client variant cache hits and misses
		variantLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httphelper_variant_lookups_total",
				Help: "Total client variant cache lookups by result",
			},
			[]string{"result"},
		),
		progressEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httphelper_progress_events_total",
				Help: "Total progress events dispatched by direction and kind",
			},
			[]string{"direction", "kind"},
		),
		progressBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "httphelper_progress_bytes_total",
				Help: "Total body bytes observed by progress reporting, by direction",
			},
			[]string{"direction"},
		),
	}
}

// RecordRewrite increments the rewrite counter for source.
func (c *Collector) RecordRewrite(source string) {
	if c == nil {
		return
	}
	c.rewritten.WithLabelValues(source).Inc()
}

// RecordVariantLookup records a client variant cache lookup.
func (c *Collector) RecordVariantLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.variantLookups.WithLabelValues(result).Inc()
}

// RecordProgressEvent records one dispatched progress event.
func (c *Collector) RecordProgressEvent(direction, kind string) {
	if c == nil {
		return
	}
	c.progressEvents.WithLabelValues(direction, kind).Inc()
}

// AddProgressBytes adds n transferred bytes for direction.
func (c *Collector) AddProgressBytes(direction string, n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.progressBytes.WithLabelValues(direction).Add(float64(n))
}
