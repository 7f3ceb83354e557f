// Package metrics exposes Prometheus instrumentation for the gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors on a private registry so
// tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal         *prometheus.CounterVec
	ValidationErrorsTotal *prometheus.CounterVec
	ProvidersDroppedTotal *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "requests_total",
			Help:      "Requests processed, by endpoint and outcome.",
		}, []string{"endpoint", "status"}),
		ValidationErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "validation_errors_total",
			Help:      "Validation failures, by detail keyword.",
		}, []string{"keyword"}),
		ProvidersDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "providers_dropped_total",
			Help:      "Providers removed during filtering, by stage.",
		}, []string{"stage"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gateway",
			Name:      "request_duration_seconds",
			Help:      "End-to-end pipeline latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.ValidationErrorsTotal,
		m.ProvidersDroppedTotal,
		m.RequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
