package infrastructure

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "camp"

// Metrics holds the Prometheus collectors of the ingestion pipeline and
// the registry they are registered with.
type Metrics struct {
	Registry *prometheus.Registry

	IngestRuns     *prometheus.CounterVec
	IngestRows     *prometheus.CounterVec
	IngestDuration *prometheus.HistogramVec
	StoreRecords   prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a fresh registry. Go runtime and
// process collectors are included when withRuntime is set.
func NewMetrics(withRuntime bool) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		IngestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by detected format and outcome.",
		}, []string{"format", "status"}),
		IngestRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ingest_rows_total",
			Help:      "Rows handled by ingestion, by outcome.",
		}, []string{"outcome"}),
		IngestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of ingestion stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		StoreRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "store_records",
			Help:      "Records in the capacity store after the last write.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.Registry.MustRegister(m.IngestRuns, m.IngestRows, m.IngestDuration, m.StoreRecords,
		m.HTTPRequests, m.HTTPDuration)
	if withRuntime {
		m.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// ObserveStage records how long a stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.IngestDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordRun counts one finished ingestion run.
func (m *Metrics) RecordRun(format, status string) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.IngestRuns.WithLabelValues(format, status).Inc()
}

// AddRows counts rows for an outcome such as inserted or skipped.
func (m *Metrics) AddRows(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IngestRows.WithLabelValues(outcome).Add(float64(n))
}

// SetStoreRecords sets the store size gauge.
func (m *Metrics) SetStoreRecords(n int) {
	if m == nil {
		return
	}
	m.StoreRecords.Set(float64(n))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// WriteTextfile writes the registry in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
