// Package metrics holds the Prometheus collectors for the upload server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "payroll_csv"

// Upload results.
const (
	ResultSuccess  = "success"
	ResultNoData   = "no_data"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics bundles the collectors on a private registry so tests can build
// as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	uploads            *prometheus.CounterVec
	recordsExtracted   *prometheus.CounterVec
	extractionDuration prometheus.Histogram
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates and registers all collectors, including Go runtime and
// process metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "PDF uploads processed, by result.",
		}, []string{"result"}),
		recordsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Payroll records extracted, by strategy.",
		}, []string{"strategy"}),
		extractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent turning one PDF into CSV.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.uploads,
		m.recordsExtracted,
		m.extractionDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveUpload records one processed upload.
func (m *Metrics) ObserveUpload(result string, elapsed time.Duration) {
	m.uploads.WithLabelValues(result).Inc()
	if result == ResultSuccess || result == ResultNoData {
		m.extractionDuration.Observe(elapsed.Seconds())
	}
}

// ObserveRecords adds n extracted records for strategy.
func (m *Metrics) ObserveRecords(strategy string, n int) {
	m.recordsExtracted.WithLabelValues(strategy).Add(float64(n))
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method, code string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
