// Package metrics exports Prometheus collectors for the content cache, the
// upstream content API and the search engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "masjid_content"

// Cache lookup results
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultStale = "stale"
)

// Metrics holds all service Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Cache metrics
	CacheLookups     *prometheus.CounterVec
	CacheFillErrors  *prometheus.CounterVec
	CacheStoreErrors *prometheus.CounterVec
	CacheEvictions   *prometheus.CounterVec

	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// Catalog and search metrics
	CatalogSkipped *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec
	SearchResults  prometheus.Histogram

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := newMetrics(reg)
	m.registry = reg
	return m
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}
	initCacheMetrics(factory, m)
	initUpstreamMetrics(factory, m)
	initSearchMetrics(factory, m)
	initHTTPMetrics(factory, m)
	return m
}

func initCacheMetrics(f promauto.Factory, m *Metrics) {
	m.CacheLookups = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by content type and result (hit, miss, stale)",
	}, []string{"content_type", "result"})

	m.CacheFillErrors = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_fill_errors_total",
		Help:      "Loader failures on cache miss, by error kind",
	}, []string{"content_type", "kind"})

	m.CacheStoreErrors = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_store_errors_total",
		Help:      "Cache backend failures by operation",
	}, []string{"operation"})

	m.CacheEvictions = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_evictions_total",
		Help:      "Entries removed by explicit invalidation",
	}, []string{"content_type"})
}

func initUpstreamMetrics(f promauto.Factory, m *Metrics) {
	m.UpstreamRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Requests to the content API by content type and outcome",
	}, []string{"content_type", "outcome"})

	m.UpstreamDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of content API requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 3.0, 5.0, 10.0},
	}, []string{"content_type"})
}

func initSearchMetrics(f promauto.Factory, m *Metrics) {
	m.CatalogSkipped = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_skipped_items_total",
		Help:      "Items dropped from a catalog because their fetch failed",
	}, []string{"content_type"})

	m.SearchDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_duration_seconds",
		Help:      "Time to resolve candidates and rank a search",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
	}, []string{"content_type"})

	m.SearchResults = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_results_total_count",
		Help:      "Total matches per search before pagination",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 500, 2000},
	})
}

func initHTTPMetrics(f promauto.Factory, m *Metrics) {
	m.HTTPRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route pattern and status code",
	}, []string{"method", "route", "status"})

	m.HTTPDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCacheLookup counts a cache lookup
func (m *Metrics) RecordCacheLookup(contentType, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(contentType, result).Inc()
}

// RecordCacheFillError counts a loader failure
func (m *Metrics) RecordCacheFillError(contentType, kind string) {
	if m == nil {
		return
	}
	m.CacheFillErrors.WithLabelValues(contentType, kind).Inc()
}

// RecordCacheStoreError counts a backend failure
func (m *Metrics) RecordCacheStoreError(operation string) {
	if m == nil {
		return
	}
	m.CacheStoreErrors.WithLabelValues(operation).Inc()
}

// RecordEvictions counts removed cache entries
func (m *Metrics) RecordEvictions(contentType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CacheEvictions.WithLabelValues(contentType).Add(float64(n))
}

// RecordUpstream records one content API request
func (m *Metrics) RecordUpstream(contentType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(contentType, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(contentType).Observe(duration.Seconds())
}

// RecordCatalogSkipped counts items dropped from a catalog
func (m *Metrics) RecordCatalogSkipped(contentType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CatalogSkipped.WithLabelValues(contentType).Add(float64(n))
}

// RecordSearch records one completed search
func (m *Metrics) RecordSearch(contentType string, total int, duration time.Duration) {
	if m == nil {
		return
	}
	m.SearchDuration.WithLabelValues(contentType).Observe(duration.Seconds())
	m.SearchResults.Observe(float64(total))
}

// RecordHTTPRequest records one served HTTP request
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
