// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/kintree/pkg/observability"
)

const namespace = "kintree"

// Hooks records pipeline, cache and HTTP events as Prometheus metrics.
type Hooks struct {
	layoutUnits    *prometheus.HistogramVec
	layoutDuration *prometheus.HistogramVec
	renderDuration *prometheus.HistogramVec
	stageErrors    *prometheus.CounterVec

	cacheLookups *prometheus.CounterVec
	cacheBytes   *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Hooks {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Hooks{
		layoutUnits: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_units",
			Help:      "Number of layout units (individuals and couples) per layout.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"placer"}),
		layoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time spent placing a family tree.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"placer"}),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent rendering a layout.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		stageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_errors_total",
			Help:      "Failed layout and render stages.",
		}, []string{"stage"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}, []string{"key_type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Served API requests.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Register installs h as the global pipeline, cache and HTTP hooks.
func (h *Hooks) Register() {
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *Hooks) OnLayoutStart(_ context.Context, placer string, units int) {
	h.layoutUnits.WithLabelValues(placer).Observe(float64(units))
}

func (h *Hooks) OnLayoutComplete(_ context.Context, placer string, d time.Duration, err error) {
	if err != nil {
		h.stageErrors.WithLabelValues("layout").Inc()
		return
	}
	h.layoutDuration.WithLabelValues(placer).Observe(d.Seconds())
}

func (h *Hooks) OnRenderStart(context.Context, string) {}

func (h *Hooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	if err != nil {
		h.stageErrors.WithLabelValues("render").Inc()
		return
	}
	h.renderDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *Hooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
)
