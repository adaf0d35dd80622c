// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gate decisions.
const (
	DecisionExempt  = "exempt"
	DecisionAllowed = "allowed"
	DecisionMissing = "missing_token"
	DecisionRevoked = "revoked"
	DecisionInvalid = "invalid"
	DecisionExpired = "expired"
)

type Metrics struct {
	registry *prometheus.Registry

	GateDecisions *prometheus.CounterVec
	ProviderCalls *prometheus.CounterVec
	FlowOutcomes  *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "athlete",
			Subsystem: "auth",
			Name:      "gate_decisions_total",
			Help:      "Access gate decisions by outcome.",
		}, []string{"decision"}),
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "athlete",
			Subsystem: "auth",
			Name:      "otp_provider_calls_total",
			Help:      "OTP provider calls by operation and provider status.",
		}, []string{"operation", "status"}),
		FlowOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "athlete",
			Subsystem: "auth",
			Name:      "flow_outcomes_total",
			Help:      "Verification and guest flow results.",
		}, []string{"flow", "outcome"}),
	}
	reg.MustRegister(
		m.GateDecisions,
		m.ProviderCalls,
		m.FlowOutcomes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The helpers below accept a nil receiver so callers can run without metrics.

func (m *Metrics) Gate(decision string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) Provider(operation, status string) {
	if m == nil {
		return
	}
	m.ProviderCalls.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) Flow(flow, outcome string) {
	if m == nil {
		return
	}
	m.FlowOutcomes.WithLabelValues(flow, outcome).Inc()
}
