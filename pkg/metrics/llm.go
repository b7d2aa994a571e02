package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK            = "ok"
	OutcomeUpstreamError = "upstream_error"
	OutcomeFormatError   = "format_error"
)

// LLMMetrics records calls made to the hosted language model.
type LLMMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewLLMMetrics registers the language model metrics on the provided registerer.
func NewLLMMetrics(reg prometheus.Registerer) *LLMMetrics {
	if reg == nil {
		return &LLMMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Duration of language model requests in seconds.",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	}, []string{"operation"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_requests_total",
		Help: "Language model requests by outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, calls)
	return &LLMMetrics{
		duration: duration,
		calls:    calls,
	}
}

// ObserveDuration records the latency of one call.
func (m *LLMMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncOutcome counts one call with the given outcome.
func (m *LLMMetrics) IncOutcome(operation, outcome string) {
	if m == nil || m.calls == nil {
		return
	}
	m.calls.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
