package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nadi-pro/browser/pkg/config"
)

// SamplingMetrics tracks the sampling decision engine.
//
// Metrics:
//   - nadi_governor_sampling_decisions_total: Decisions by reason and outcome
//   - nadi_governor_sampling_forced_total: Sessions forced into the sample
//   - nadi_governor_sampling_events_total: Events counted for adaptive sampling
//   - nadi_governor_sampling_rate: Configured global rate
//   - nadi_governor_sampling_effective_rate: Rate currently applied to new sessions
//   - nadi_governor_sampling_adaptive_resets_total: Adaptive window resets
type SamplingMetrics struct {
	decisions     *prometheus.CounterVec
	forced        prometheus.Counter
	events        *prometheus.CounterVec
	globalRate    prometheus.Gauge
	effectiveRate prometheus.Gauge
	resets        prometheus.Counter
}

// NewSamplingMetrics creates and registers sampling metrics.
func NewSamplingMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *SamplingMetrics {
	sm := &SamplingMetrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sampling_decisions_total",
				Help:      "Total number of session sampling decisions",
			},
			[]string{"reason", "sampled"},
		),
		forced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "sampling_forced_total",
			Help:      "Total number of sessions forced into the sample",
		}),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "sampling_events_total",
				Help:      "Total number of events recorded for adaptive sampling",
			},
			[]string{"error"},
		),
		globalRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "sampling_rate",
			Help:      "Configured global sampling rate",
		}),
		effectiveRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "sampling_effective_rate",
			Help:      "Sampling rate applied to sessions no rule matches",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "sampling_adaptive_resets_total",
			Help:      "Total number of adaptive sampling window resets",
		}),
	}

	registry.MustRegister(
		sm.decisions,
		sm.forced,
		sm.events,
		sm.globalRate,
		sm.effectiveRate,
		sm.resets,
	)
	return sm
}

// RecordDecision counts one decision.
func (sm *SamplingMetrics) RecordDecision(reason string, sampled bool) {
	sm.decisions.WithLabelValues(reason, strconv.FormatBool(sampled)).Inc()
}

// RecordForced counts one forced session.
func (sm *SamplingMetrics) RecordForced() {
	sm.forced.Inc()
}

// RecordEvent counts one adaptive sampling event.
func (sm *SamplingMetrics) RecordEvent(isError bool) {
	sm.events.WithLabelValues(strconv.FormatBool(isError)).Inc()
}

// UpdateRates sets the rate gauges.
func (sm *SamplingMetrics) UpdateRates(global, effective float64) {
	sm.globalRate.Set(global)
	sm.effectiveRate.Set(effective)
}

// RecordReset counts one adaptive window reset.
func (sm *SamplingMetrics) RecordReset() {
	sm.resets.Inc()
}
