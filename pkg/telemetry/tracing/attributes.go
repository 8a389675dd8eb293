package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Custom attribute keys use the "nadi.*" namespace.
const (
	// Request attributes
	AttrRequestID = "nadi.request_id"
	AttrSessionID = "nadi.session_id"
	AttrRoute     = "nadi.route"

	// Sampling attributes
	AttrSampled        = "nadi.sampling.sampled"
	AttrSamplingReason = "nadi.sampling.reason"
	AttrSamplingRate   = "nadi.sampling.rate"

	// Privacy attributes
	AttrPrivacyOperation = "nadi.privacy.operation"
	AttrPrivacyChanged   = "nadi.privacy.changed"
	AttrPrivacyPatterns  = "nadi.privacy.patterns"
	AttrPrivacyMatches   = "nadi.privacy.matches"

	// Trace context attributes
	AttrPropagated = "nadi.trace.propagated"
	AttrTargetHost = "nadi.trace.target_host"
)

// SetRequestAttributes sets request-scoped attributes on a span. Empty
// values are skipped.
func SetRequestAttributes(span trace.Span, requestID, sessionID string) {
	var attrs []attribute.KeyValue
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	if sessionID != "" {
		attrs = append(attrs, attribute.String(AttrSessionID, sessionID))
	}
	span.SetAttributes(attrs...)
}

// SetSamplingAttributes records a sampling decision on a span.
//
// Example:
//
//	SetSamplingAttributes(span, true, "rule:checkout", 1.0)
func SetSamplingAttributes(span trace.Span, sampled bool, reason string, rate float64) {
	span.SetAttributes(
		attribute.Bool(AttrSampled, sampled),
		attribute.String(AttrSamplingReason, reason),
		attribute.Float64(AttrSamplingRate, rate),
	)
}

// SetPrivacyAttributes records a masking operation on a span. Only
// pattern names are recorded, never matched text.
func SetPrivacyAttributes(span trace.Span, operation string, changed bool, patterns []string, matches int) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrPrivacyOperation, operation),
		attribute.Bool(AttrPrivacyChanged, changed),
	}
	if len(patterns) > 0 {
		attrs = append(attrs,
			attribute.StringSlice(AttrPrivacyPatterns, patterns),
			attribute.Int(AttrPrivacyMatches, matches),
		)
	}
	span.SetAttributes(attrs...)
}

// SetPropagationAttributes records a propagation decision on a span.
func SetPropagationAttributes(span trace.Span, host string, propagated bool) {
	span.SetAttributes(
		attribute.String(AttrTargetHost, host),
		attribute.Bool(AttrPropagated, propagated),
	)
}
