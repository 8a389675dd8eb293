package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nadi-pro/browser/pkg/config"
)

// Default histogram buckets, in seconds.
var (
	// DefaultRequestDurationBuckets cover API calls from 1ms to 2.5s.
	DefaultRequestDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

	// DefaultMaskDurationBuckets cover masking work from 10µs to 50ms.
	DefaultMaskDurationBuckets = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05}
)

// OtherLabel replaces label values once the cardinality limit is reached.
const OtherLabel = "other"

// Collector is the main orchestrator for all Prometheus metrics in Nadi.
// It manages metric registration and provides a unified interface for
// recording metrics across the trace, sampling and privacy engines and the
// HTTP API.
//
// All Record methods are no-ops when metrics are disabled, and are safe to
// call on a nil *Collector.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	samplingMetrics *SamplingMetrics
	privacyMetrics  *PrivacyMetrics
	traceMetrics    *TraceMetrics

	// Cardinality tracking for user-defined label values (rule and
	// pattern names, routes).
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a new registry
// is created.
//
// Example:
//
//	collector := metrics.NewCollector(config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "nadi",
//		Subsystem: "governor",
//	}, nil)
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		requestMetrics:     NewRequestMetrics(cfg, registry),
		samplingMetrics:    NewSamplingMetrics(cfg, registry),
		privacyMetrics:     NewPrivacyMetrics(cfg, registry),
		traceMetrics:       NewTraceMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// label returns value, or OtherLabel once the limiter refuses new values.
func (c *Collector) label(kind, value string) string {
	if !c.cardinalityLimiter.Allow(kind + ":" + value) {
		return OtherLabel
	}
	return value
}

// RecordRequest records a completed API request.
//
// Parameters:
//   - route: Registered route pattern (e.g., "/v1/sampling/decide")
//   - method: HTTP method
//   - code: HTTP status code
//   - duration: Request duration
func (c *Collector) RecordRequest(route, method string, code int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.requestMetrics.RecordRequest(c.label("route", route), method, code, duration)
}

// RecordRateLimited records a request rejected by the rate limiter.
func (c *Collector) RecordRateLimited(route string) {
	if !c.enabled() {
		return
	}
	c.requestMetrics.RecordRateLimited(c.label("route", route))
}

// RecordSamplingDecision records a sampling decision.
//
// Parameters:
//   - reason: Decision reason ("error", "slow_session", "rule:<name>", "rate", ...)
//   - sampled: Whether the session was sampled
func (c *Collector) RecordSamplingDecision(reason string, sampled bool) {
	if !c.enabled() {
		return
	}
	c.samplingMetrics.RecordDecision(c.label("reason", reason), sampled)
}

// RecordForcedSample records a session forced into the sample.
func (c *Collector) RecordForcedSample() {
	if !c.enabled() {
		return
	}
	c.samplingMetrics.RecordForced()
}

// RecordSamplingEvent records an event counted toward adaptive sampling.
func (c *Collector) RecordSamplingEvent(isError bool) {
	if !c.enabled() {
		return
	}
	c.samplingMetrics.RecordEvent(isError)
}

// UpdateSamplingRates publishes the configured global rate and the current
// effective rate.
func (c *Collector) UpdateSamplingRates(global, effective float64) {
	if !c.enabled() {
		return
	}
	c.samplingMetrics.UpdateRates(global, effective)
}

// RecordAdaptiveReset records a reset of the adaptive counters.
func (c *Collector) RecordAdaptiveReset() {
	if !c.enabled() {
		return
	}
	c.samplingMetrics.RecordReset()
}

// RecordMask records a masking operation.
//
// Parameters:
//   - operation: "text", "object" or "url"
//   - changed: Whether the output differs from the input
//   - duration: Time spent masking
func (c *Collector) RecordMask(operation string, changed bool, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.privacyMetrics.RecordMask(operation, changed, duration)
}

// RecordDetection records the patterns found by a detection call.
func (c *Collector) RecordDetection(patterns []string, count int) {
	if !c.enabled() {
		return
	}
	labels := make([]string, len(patterns))
	for i, p := range patterns {
		labels[i] = c.label("pattern", p)
	}
	c.privacyMetrics.RecordDetection(labels, count)
}

// RecordPatternFailure records a pattern that panicked while masking.
func (c *Collector) RecordPatternFailure(pattern string) {
	if !c.enabled() {
		return
	}
	c.privacyMetrics.RecordFailure(c.label("pattern", pattern))
}

// RecordTraceHeader records a traceparent header generated for an
// outgoing request.
func (c *Collector) RecordTraceHeader() {
	if !c.enabled() {
		return
	}
	c.traceMetrics.RecordHeader()
}

// RecordPropagation records a propagation decision for an outgoing URL.
func (c *Collector) RecordPropagation(propagated bool) {
	if !c.enabled() {
		return
	}
	c.traceMetrics.RecordPropagation(propagated)
}

// RecordAdoption records an attempt to adopt an incoming trace context.
func (c *Collector) RecordAdoption(accepted bool) {
	if !c.enabled() {
		return
	}
	c.traceMetrics.RecordAdoption(accepted)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
