// Package metrics holds the prometheus collectors of a single ngsiadmin run.
// A run is a batch job, so metrics are exported through the node_exporter
// textfile collector instead of an HTTP endpoint.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ngsiadmin"

// Metrics aggregates the collectors registered in a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	entitiesTotal   *prometheus.CounterVec
}

// New creates collectors and registers them in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests sent to the context broker by method and status code.",
		}, []string{"method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the context broker.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		entitiesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_total",
			Help:      "Entities processed by operation.",
		}, []string{"operation"}),
	}

	m.registry.MustRegister(m.requestsTotal, m.requestDuration, m.entitiesTotal)
	return m
}

// ObserveRequest records one finished HTTP exchange.
// code 0 means the request failed before a response was received.
func (m *Metrics) ObserveRequest(method string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requestsTotal.WithLabelValues(method, label).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// AddEntities counts entities handled by an operation (fetch, upload, ...).
func (m *Metrics) AddEntities(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.entitiesTotal.WithLabelValues(operation).Add(float64(n))
}

// Registry exposes the underlying registry (tests, custom exporters).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
