package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the agent and daemon.
type Metrics struct {
	registry       *prometheus.Registry
	AgentRuns      *prometheus.CounterVec
	AgentDuration  *prometheus.HistogramVec
	AgentPasses    prometheus.Histogram
	ToolCalls      *prometheus.CounterVec
	Compactions    prometheus.Counter
	Delegations    *prometheus.CounterVec
	ActiveSessions *prometheus.GaugeVec
	TransportErrs  *prometheus.CounterVec
	ModelUsage     *prometheus.CounterVec
	ModelFailures  *prometheus.CounterVec
}

// NewMetrics constructs a metrics registry with agent collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codeforge_agent_runs_total",
		Help: "Completed agent runs by finish reason",
	}, []string{"finish_reason"})

	durs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeforge_agent_run_duration_seconds",
		Help:    "Agent run duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"finish_reason"})

	passes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "codeforge_agent_iterations",
		Help:    "Loop passes per run",
		Buckets: []float64{1, 2, 3, 5, 8, 10, 15, 20},
	})

	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codeforge_tool_invocations_total",
		Help: "Tool invocations by tool and outcome",
	}, []string{"tool", "outcome"})

	compactions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "codeforge_memory_compactions_total",
		Help: "History compactions performed",
	})

	delegations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codeforge_delegations_total",
		Help: "Sub-agent delegations by target role",
	}, []string{"role"})

	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "codeforge_transport_active_sessions",
		Help: "Active streaming sessions by transport",
	}, []string{"transport"})

	trErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codeforge_transport_errors_total",
		Help: "Transport-level errors by transport and reason",
	}, []string{"transport", "reason"})

	modelUsage := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codeforge_model_usage_total",
		Help: "Model selections by role",
	}, []string{"role", "model"})

	modelFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "codeforge_model_failures_total",
		Help: "Model failures by role and model",
	}, []string{"role", "model"})

	reg.MustRegister(runs, durs, passes, toolCalls, compactions, delegations, active, trErrors, modelUsage, modelFailures)

	return &Metrics{
		registry:       reg,
		AgentRuns:      runs,
		AgentDuration:  durs,
		AgentPasses:    passes,
		ToolCalls:      toolCalls,
		Compactions:    compactions,
		Delegations:    delegations,
		ActiveSessions: active,
		TransportErrs:  trErrors,
		ModelUsage:     modelUsage,
		ModelFailures:  modelFailures,
	}
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAgentRun records one finished run.
func (m *Metrics) RecordAgentRun(finishReason string, duration time.Duration, iterations int) {
	if m == nil {
		return
	}
	if finishReason == "" {
		finishReason = "unknown"
	}
	m.AgentRuns.WithLabelValues(finishReason).Inc()
	m.AgentDuration.WithLabelValues(finishReason).Observe(duration.Seconds())
	m.AgentPasses.Observe(float64(iterations))
}

// RecordToolCall records one tool invocation outcome.
func (m *Metrics) RecordToolCall(tool string, failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// RecordCompaction records one history compaction.
func (m *Metrics) RecordCompaction() {
	if m == nil {
		return
	}
	m.Compactions.Inc()
}

// RecordDelegation records a delegation to a specialist role.
func (m *Metrics) RecordDelegation(role string) {
	if m == nil {
		return
	}
	if role == "" {
		role = "unknown"
	}
	m.Delegations.WithLabelValues(role).Inc()
}

// IncActiveSessions increments the active session gauge.
func (m *Metrics) IncActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSessions.WithLabelValues(transport).Inc()
}

// DecActiveSessions decrements the active session gauge.
func (m *Metrics) DecActiveSessions(transport string) {
	if m == nil {
		return
	}
	m.ActiveSessions.WithLabelValues(transport).Dec()
}

// RecordTransportError records a transport-level error.
func (m *Metrics) RecordTransportError(transport, reason string) {
	if m == nil {
		return
	}
	if transport == "" {
		transport = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	m.TransportErrs.WithLabelValues(transport, reason).Inc()
}

// RecordModelUsage increments the usage counter for a role/model pair.
func (m *Metrics) RecordModelUsage(role, model string) {
	if m == nil {
		return
	}
	if role == "" {
		role = "unknown"
	}
	if model == "" {
		model = "unknown"
	}
	m.ModelUsage.WithLabelValues(role, model).Inc()
}

// RecordModelFailure increments the failure counter for a role/model pair.
func (m *Metrics) RecordModelFailure(role, model string) {
	if m == nil {
		return
	}
	if role == "" {
		role = "unknown"
	}
	if model == "" {
		model = "unknown"
	}
	m.ModelFailures.WithLabelValues(role, model).Inc()
}
