package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the service on its own registry
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Service metrics
	Operations      *prometheus.HistogramVec
	OperationErrors *prometheus.CounterVec
	DeviceEvents    *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Operations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Device service operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_errors_total",
				Help:      "Total number of failed device service operations",
			},
			[]string{"operation", "code"},
		),
		DeviceEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "device_events_total",
				Help:      "Device lifecycle events by metric name and category",
			},
			[]string{"metric", "category"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Operations,
		c.OperationErrors,
		c.DeviceEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordLatency(_ context.Context, operation string, duration time.Duration) {
	c.Operations.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *Collector) RecordCount(_ context.Context, metricName string, count float64, dims map[string]string) {
	c.DeviceEvents.WithLabelValues(metricName, dims["Category"]).Add(count)
}

func (c *Collector) RecordError(_ context.Context, operation string, code string) {
	c.OperationErrors.WithLabelValues(operation, code).Inc()
}

// Recorder is the set of operation metrics both backends implement
type Recorder interface {
	RecordLatency(ctx context.Context, operation string, duration time.Duration)
	RecordCount(ctx context.Context, metricName string, count float64, dims map[string]string)
	RecordError(ctx context.Context, operation string, code string)
}

// MultiRecorder fans every measurement out to several recorders
type MultiRecorder []Recorder

func (m MultiRecorder) RecordLatency(ctx context.Context, operation string, duration time.Duration) {
	for _, r := range m {
		r.RecordLatency(ctx, operation, duration)
	}
}

func (m MultiRecorder) RecordCount(ctx context.Context, metricName string, count float64, dims map[string]string) {
	for _, r := range m {
		r.RecordCount(ctx, metricName, count, dims)
	}
}

func (m MultiRecorder) RecordError(ctx context.Context, operation string, code string) {
	for _, r := range m {
		r.RecordError(ctx, operation, code)
	}
}
