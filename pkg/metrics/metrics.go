// Package metrics exposes docmap events as Prometheus metrics.
//
// A [Registry] implements every hook interface of pkg/observability, so
// installing it is one call:
//
//	reg := metrics.NewRegistry()
//	reg.Install()
//	http.Handle("/metrics", reg.Handler())
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/docmap/pkg/observability"
)

// Registry holds all metrics for the application.
type Registry struct {
	// Render metrics
	EdgesRendered  prometheus.Counter
	EdgesSkipped   *prometheus.CounterVec
	RenderDuration prometheus.Histogram

	// Export metrics
	ExportsTotal    *prometheus.CounterVec
	ExportDuration  *prometheus.HistogramVec
	ExportSizeBytes *prometheus.HistogramVec
	ExportNodes     prometheus.Histogram

	// Cache metrics
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	CacheSetBytes *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric initialized, plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{registry: reg}
	r.initRenderMetrics()
	r.initExportMetrics()
	r.initCacheMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initRenderMetrics() {
	r.EdgesRendered = promauto.With(r.registry).NewCounter(prometheus.CounterOpts{
		Name: "docmap_edges_rendered_total",
		Help: "Edges resolved and drawn",
	})
	r.EdgesSkipped = promauto.With(r.registry).NewCounterVec(prometheus.CounterOpts{
		Name: "docmap_edges_skipped_total",
		Help: "Edges left out of a pass",
	}, []string{"reason"})
	r.RenderDuration = promauto.With(r.registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "docmap_render_duration_seconds",
		Help:    "Duration of a full edge styling pass",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})
}

func (r *Registry) initExportMetrics() {
	r.ExportsTotal = promauto.With(r.registry).NewCounterVec(prometheus.CounterOpts{
		Name: "docmap_exports_total",
		Help: "Exports by format and outcome",
	}, []string{"format", "status"})
	r.ExportDuration = promauto.With(r.registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docmap_export_duration_seconds",
		Help:    "Export latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})
	r.ExportSizeBytes = promauto.With(r.registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docmap_export_size_bytes",
		Help:    "Size of exported documents",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	}, []string{"format"})
	r.ExportNodes = promauto.With(r.registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "docmap_export_nodes",
		Help:    "Nodes per exported snapshot",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})
}

func (r *Registry) initCacheMetrics() {
	r.CacheHits = promauto.With(r.registry).NewCounterVec(prometheus.CounterOpts{
		Name: "docmap_cache_hits_total",
		Help: "Cache hits by key type",
	}, []string{"key_type"})
	r.CacheMisses = promauto.With(r.registry).NewCounterVec(prometheus.CounterOpts{
		Name: "docmap_cache_misses_total",
		Help: "Cache misses by key type",
	}, []string{"key_type"})
	r.CacheSetBytes = promauto.With(r.registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docmap_cache_set_bytes",
		Help:    "Size of cached entries",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	}, []string{"key_type"})
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(prometheus.CounterOpts{
		Name: "docmap_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docmap_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	r.HTTPRequestsInFlight = promauto.With(r.registry).NewGauge(prometheus.GaugeOpts{
		Name: "docmap_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	})
}

// PrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Install registers r as every observability hook.
func (r *Registry) Install() {
	observability.SetRenderHooks(r)
	observability.SetExportHooks(r)
	observability.SetCacheHooks(r)
	observability.SetHTTPHooks(r)
}

// OnEdgeSkipped implements observability.RenderHooks.
func (r *Registry) OnEdgeSkipped(_ string, reason string) {
	r.EdgesSkipped.WithLabelValues(reason).Inc()
}

// OnRenderComplete implements observability.RenderHooks.
func (r *Registry) OnRenderComplete(edges, _ int, d time.Duration) {
	r.EdgesRendered.Add(float64(edges))
	r.RenderDuration.Observe(d.Seconds())
}

// OnExportStart implements observability.ExportHooks.
func (r *Registry) OnExportStart(_ context.Context, _ string, nodeCount int) {
	r.ExportNodes.Observe(float64(nodeCount))
}

// OnExportComplete implements observability.ExportHooks.
func (r *Registry) OnExportComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.ExportsTotal.WithLabelValues(format, status).Inc()
	r.ExportDuration.WithLabelValues(format).Observe(d.Seconds())
	if err == nil {
		r.ExportSizeBytes.WithLabelValues(format).Observe(float64(size))
	}
}

// OnCacheHit implements observability.CacheHooks.
func (r *Registry) OnCacheHit(_ context.Context, keyType string) {
	r.CacheHits.WithLabelValues(keyType).Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (r *Registry) OnCacheMiss(_ context.Context, keyType string) {
	r.CacheMisses.WithLabelValues(keyType).Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (r *Registry) OnCacheSet(_ context.Context, keyType string, size int) {
	r.CacheSetBytes.WithLabelValues(keyType).Observe(float64(size))
}

// OnRequest implements observability.HTTPHooks.
func (r *Registry) OnRequest(context.Context, string, string) {
	r.HTTPRequestsInFlight.Inc()
}

// OnResponse implements observability.HTTPHooks.
func (r *Registry) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	r.HTTPRequestsInFlight.Dec()
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.RenderHooks = (*Registry)(nil)
	_ observability.ExportHooks = (*Registry)(nil)
	_ observability.CacheHooks  = (*Registry)(nil)
	_ observability.HTTPHooks   = (*Registry)(nil)
)
