package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nadi-pro/browser/pkg/config"
)

// PrivacyMetrics tracks the PII redaction engine.
//
// Metrics:
//   - nadi_governor_privacy_mask_operations_total: Mask calls by operation and whether PII was found
//   - nadi_governor_privacy_mask_duration_seconds: Mask call duration
//   - nadi_governor_privacy_detections_total: Detected matches by pattern
//   - nadi_governor_privacy_pattern_failures_total: Patterns that panicked
type PrivacyMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	detections *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

// NewPrivacyMetrics creates and registers privacy metrics.
func NewPrivacyMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *PrivacyMetrics {
	pm := &PrivacyMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "privacy_mask_operations_total",
				Help:      "Total number of masking operations",
			},
			[]string{"operation", "changed"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "privacy_mask_duration_seconds",
				Help:      "Duration of masking operations in seconds",
				Buckets:   DefaultMaskDurationBuckets,
			},
			[]string{"operation"},
		),
		detections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "privacy_detections_total",
				Help:      "Total number of detection calls that found each pattern",
			},
			[]string{"pattern"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "privacy_pattern_failures_total",
				Help:      "Total number of pattern failures recovered during masking",
			},
			[]string{"pattern"},
		),
	}

	registry.MustRegister(
		pm.operations,
		pm.duration,
		pm.detections,
		pm.failures,
	)
	return pm
}

// RecordMask counts one masking operation.
func (pm *PrivacyMetrics) RecordMask(operation string, changed bool, duration time.Duration) {
	pm.operations.WithLabelValues(operation, strconv.FormatBool(changed)).Inc()
	pm.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDetection counts each pattern found by one detection call.
func (pm *PrivacyMetrics) RecordDetection(patterns []string, _ int) {
	for _, p := range patterns {
		pm.detections.WithLabelValues(p).Inc()
	}
}

// RecordFailure counts one pattern failure.
func (pm *PrivacyMetrics) RecordFailure(pattern string) {
	pm.failures.WithLabelValues(pattern).Inc()
}
