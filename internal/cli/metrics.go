package cli

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/callchain/pkg/observability"
)

// =============================================================================
// Prometheus Metrics for the Ordering Service
// =============================================================================

// metrics implements every observability hook interface on top of a
// Prometheus registry.
type metrics struct {
	observability.NoopPipelineHooks

	reg *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	clusters      prometheus.Histogram
	contractions  prometheus.Histogram

	cacheEvents *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &metrics{
		reg: reg,

		// Labels: stage (load, cluster, place, render)
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: appName,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),
		stageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: appName,
			Subsystem: "pipeline",
			Name:      "stage_errors_total",
			Help:      "Total failed pipeline stages",
		}, []string{"stage"}),
		clusters: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: appName,
			Subsystem: "pipeline",
			Name:      "clusters",
			Help:      "Number of clusters per clustering run",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		contractions: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: appName,
			Subsystem: "pipeline",
			Name:      "contractions",
			Help:      "Number of edge contractions per clustering run",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),

		// Labels: kind (order, artifact), event (hit, miss, set)
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: appName,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Total cache lookups and writes",
		}, []string{"kind", "event"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: appName,
			Subsystem: "cache",
			Name:      "written_bytes_total",
			Help:      "Total bytes written to the cache",
		}, []string{"kind"}),

		// Labels: method, route, status
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: appName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests served",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: appName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: appName,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
	}
}

// register installs m as the process-wide observability hooks.
func (m *metrics) register() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// handler serves the registry in the Prometheus exposition format.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *metrics) stage(name string, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(name).Inc()
	}
}

// Pipeline hooks.

func (m *metrics) OnLoadComplete(_ context.Context, _, _ int, d time.Duration, err error) {
	m.stage("load", d, err)
}

func (m *metrics) OnClusterComplete(_ context.Context, clusters, contractions int, d time.Duration, err error) {
	m.stage("cluster", d, err)
	if err == nil {
		m.clusters.Observe(float64(clusters))
		m.contractions.Observe(float64(contractions))
	}
}

func (m *metrics) OnPlaceComplete(_ context.Context, _ int, d time.Duration, err error) {
	m.stage("place", d, err)
}

func (m *metrics) OnRenderComplete(_ context.Context, _ string, d time.Duration, err error) {
	m.stage("render", d, err)
}

// Cache hooks.

func (m *metrics) OnCacheHit(_ context.Context, kind string) {
	m.cacheEvents.WithLabelValues(kind, "hit").Inc()
}

func (m *metrics) OnCacheMiss(_ context.Context, kind string) {
	m.cacheEvents.WithLabelValues(kind, "miss").Inc()
}

func (m *metrics) OnCacheSet(_ context.Context, kind string, size int) {
	m.cacheEvents.WithLabelValues(kind, "set").Inc()
	m.cacheBytes.WithLabelValues(kind).Add(float64(size))
}

// HTTP hooks.

func (m *metrics) OnRequest(context.Context, string, string) {
	m.inFlight.Inc()
}

func (m *metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.inFlight.Dec()
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.PipelineHooks = (*metrics)(nil)
	_ observability.CacheHooks    = (*metrics)(nil)
	_ observability.HTTPHooks     = (*metrics)(nil)
)
