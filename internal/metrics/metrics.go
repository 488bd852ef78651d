// Package metrics exposes Prometheus counters for form submissions.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ezparkk"

// Outcome label used for successful operations.
const OutcomeOK = "ok"

type Metrics struct {
	registry *prometheus.Registry

	// SubmissionsTotal counts operations by name and outcome (ok or error kind).
	SubmissionsTotal *prometheus.CounterVec
	// SubmissionDuration times each operation, including store round-trips.
	SubmissionDuration *prometheus.HistogramVec
	// HTTPRequestsTotal counts requests by route and status.
	HTTPRequestsTotal *prometheus.CounterVec
}

// New builds a private registry so tests can create as many instances as
// they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Form submission operations by outcome",
		}, []string{"operation", "outcome"}),
		SubmissionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Form submission operation duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.SubmissionsTotal,
		m.SubmissionDuration,
		m.HTTPRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSubmission is safe to call on a nil *Metrics.
func (m *Metrics) ObserveSubmission(operation, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(operation, outcome).Inc()
	m.SubmissionDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
