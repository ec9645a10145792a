// Package telemetry exposes Prometheus counters for the resolution flow and
// sets up OpenTelemetry tracing.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/resolvd/internal/core/effects"
	"github.com/example/resolvd/internal/ports/secondary"
)

const namespace = "resolvd"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry        *prometheus.Registry
	offersPresented *prometheus.CounterVec
	ladderOutcomes  *prometheus.CounterVec
	caseEmissions   *prometheus.CounterVec
	orderLookups    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetrics registers the resolvd collectors plus the Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		offersPresented: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offers_presented_total",
			Help:      "Offers shown to customers, by ladder and step.",
		}, []string{"ladder", "step"}),
		ladderOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ladder_outcomes_total",
			Help:      "Finished negotiations, by ladder and resolution type.",
		}, []string{"ladder", "resolution_type"}),
		caseEmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "case_emissions_total",
			Help:      "Case emission attempts, by result.",
		}, []string{"result"}),
		orderLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_lookups_total",
			Help:      "Order lookups, by result.",
		}, []string{"result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	m.registry.MustRegister(
		m.offersPresented,
		m.ladderOutcomes,
		m.caseEmissions,
		m.orderLookups,
		m.httpDuration,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Inc increments a named counter. Unknown names and label sets are ignored.
func (m *Metrics) Inc(name string, labels map[string]string) {
	var vec *prometheus.CounterVec
	switch name {
	case effects.MetricOfferPresented:
		vec = m.offersPresented
	case effects.MetricLadderOutcome:
		vec = m.ladderOutcomes
	case effects.MetricCaseEmission:
		vec = m.caseEmissions
	case effects.MetricOrderLookup:
		vec = m.orderLookups
	default:
		return
	}
	c, err := vec.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return
	}
	c.Inc()
}

// ObserveHTTP records one request's latency.
func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var _ secondary.Metrics = (*Metrics)(nil)
