package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nadi-pro/browser/pkg/config"
)

// TraceMetrics tracks the trace context manager.
//
// Metrics:
//   - nadi_governor_trace_headers_total: traceparent headers generated
//   - nadi_governor_trace_propagation_total: Propagation checks by result
//   - nadi_governor_trace_adoptions_total: Incoming context adoption by result
type TraceMetrics struct {
	headers     prometheus.Counter
	propagation *prometheus.CounterVec
	adoptions   *prometheus.CounterVec
}

// NewTraceMetrics creates and registers trace metrics.
func NewTraceMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *TraceMetrics {
	tm := &TraceMetrics{
		headers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "trace_headers_total",
			Help:      "Total number of traceparent headers generated",
		}),
		propagation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "trace_propagation_total",
				Help:      "Total number of propagation checks by result",
			},
			[]string{"result"},
		),
		adoptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "trace_adoptions_total",
				Help:      "Total number of incoming trace context adoptions by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(tm.headers, tm.propagation, tm.adoptions)
	return tm
}

// RecordHeader counts one generated header.
func (tm *TraceMetrics) RecordHeader() {
	tm.headers.Inc()
}

// RecordPropagation counts one propagation check.
func (tm *TraceMetrics) RecordPropagation(propagated bool) {
	result := "skipped"
	if propagated {
		result = "propagated"
	}
	tm.propagation.WithLabelValues(result).Inc()
}

// RecordAdoption counts one adoption attempt.
func (tm *TraceMetrics) RecordAdoption(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	tm.adoptions.WithLabelValues(result).Inc()
}
