// Package metrics provides Prometheus metrics collection for Nadi.
//
// # Overview
//
// The metrics package exposes counters, gauges and histograms for the three
// governance engines and the HTTP API that fronts them.
//
// # Metrics Categories
//
//   - Request Metrics: API request count, duration and rate limiting
//   - Sampling Metrics: Decisions by reason, forced sessions, adaptive rates
//   - Privacy Metrics: Masking operations, detections by pattern, pattern failures
//   - Trace Metrics: Generated headers, propagation checks, adopted contexts
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//
//	collector.RecordSamplingDecision("rule:checkout", true)
//	collector.RecordMask("url", true, 40*time.Microsecond)
//	collector.RecordPropagation(false)
//
// A nil *Collector accepts every Record call, so components can be built
// without metrics.
//
// # Prometheus Endpoint
//
// All metrics are exposed through Handler in the Prometheus exposition
// format:
//
//	# HELP nadi_governor_sampling_decisions_total Total number of session sampling decisions
//	# TYPE nadi_governor_sampling_decisions_total counter
//	nadi_governor_sampling_decisions_total{reason="rate",sampled="true"} 1234
//
// # Cardinality Management
//
// Rule names, pattern names and routes are user controlled. Once 1,000
// distinct values have been seen, new values are recorded under "other".
package metrics
