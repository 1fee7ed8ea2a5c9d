package validator

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports validator counters to a prometheus registry.
type Metrics struct {
	toolCalls  *prometheus.CounterVec
	violations *prometheus.CounterVec
}

// NewMetrics creates and registers the validator collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgate",
			Subsystem: "validator",
			Name:      "tool_calls_total",
			Help:      "Validated tool calls that were allowed, by tool name.",
		}, []string{"tool"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentgate",
			Subsystem: "validator",
			Name:      "violations_total",
			Help:      "Blocked tool calls, by violation type and tool name.",
		}, []string{"type", "tool"}),
	}
	if reg != nil {
		reg.MustRegister(m.toolCalls, m.violations)
	}
	return m
}
