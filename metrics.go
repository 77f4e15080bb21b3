package library

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics owns the Prometheus registry of the service. It is a
// DecisionRecorder and an ActivitySink.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	activity     *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_authorization_decisions_total",
				Help: "Authorization decisions by action and outcome",
			},
			[]string{"action", "decision"},
		),
		activity: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_activity_events_total",
				Help: "Activity events by type",
			},
			[]string{"event"},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.decisions,
		m.activity,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordDecision implements DecisionRecorder
func (m *Metrics) RecordDecision(action Action, decision Decision) {
	m.decisions.WithLabelValues(string(action), decision.String()).Inc()
}

// Record implements ActivitySink
func (m *Metrics) Record(_ context.Context, event ActivityEvent) error {
	m.activity.WithLabelValues(string(event.EventType)).Inc()
	return nil
}

// RecordRequest counts a finished HTTP request
func (m *Metrics) RecordRequest(method, route string, status int) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
