// Package metrics provides Prometheus metrics for the upload pipeline and
// HTTP surface.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/sightline/internal/analytics"
	"github.com/JaimeStill/sightline/internal/detections"
	"github.com/JaimeStill/sightline/pkg/middleware"
)

// Metrics contains all Prometheus metrics for the service.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal      *prometheus.CounterVec
	detectionsTotal   *prometheus.CounterVec
	inferenceDuration *prometheus.HistogramVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates and registers the service metrics together with the Go
// runtime and process collectors on a fresh registry.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}
	m.initMetrics()

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register sightline metrics: %w", err)
	}
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sightline_uploads_total",
			Help: "Total number of processed uploads partitioned by outcome.",
		},
		[]string{"outcome"}, // stored, invalid, failed
	)

	m.detectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sightline_detections_total",
			Help: "Total number of stored detection records partitioned by size category.",
		},
		[]string{"category"}, // small, medium, large, none
	)

	m.inferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sightline_inference_duration_seconds",
			Help:    "Time taken by the detection model per image.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"status"},
	)

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sightline_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "status_code"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sightline_http_request_duration_seconds",
			Help:    "Time taken for HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.uploadsTotal.Describe(ch)
	m.detectionsTotal.Describe(ch)
	m.inferenceDuration.Describe(ch)
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.uploadsTotal.Collect(ch)
	m.detectionsTotal.Collect(ch)
	m.inferenceDuration.Collect(ch)
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
}

// ObserveUpload counts one upload by outcome.
func (m *Metrics) ObserveUpload(outcome string) {
	m.uploadsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRecord counts a stored record by its size category.
func (m *Metrics) ObserveRecord(rec detections.Record) {
	category := string(analytics.Categorize(rec.DetectedClasses))
	if category == "" {
		category = "none"
	}
	m.detectionsTotal.WithLabelValues(category).Inc()
}

// ObserveInference records one model invocation.
func (m *Metrics) ObserveInference(d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.inferenceDuration.WithLabelValues(status).Observe(d.Seconds())
}

// Middleware records request counts and durations.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := middleware.NewStatusRecorder(w)
			next.ServeHTTP(rec, r)

			m.httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.Status)).Inc()
			m.httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
