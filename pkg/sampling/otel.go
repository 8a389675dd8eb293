package sampling

import (
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// AttrReason is the span attribute carrying the session decision reason.
const AttrReason = "nadi.sampling.reason"

// DecisionSource exposes a memoized session decision. *Engine satisfies
// it; concurrent hosts provide a locked wrapper.
type DecisionSource interface {
	Decision() (Decision, bool)
}

// SessionSampler is an OpenTelemetry sampler that follows the session
// decision, so backend spans are kept exactly when the session is. Before
// the session is decided it defers to the parent span's sampled flag.
type SessionSampler struct {
	source DecisionSource
}

var _ sdktrace.Sampler = (*SessionSampler)(nil)

// NewSessionSampler wraps source as an OpenTelemetry sampler.
func NewSessionSampler(source DecisionSource) *SessionSampler {
	return &SessionSampler{source: source}
}

// ShouldSample implements sdktrace.Sampler.
func (s *SessionSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	parent := trace.SpanContextFromContext(p.ParentContext)
	result := sdktrace.SamplingResult{
		Decision:   sdktrace.Drop,
		Tracestate: parent.TraceState(),
	}

	d, ok := s.source.Decision()
	switch {
	case ok:
		if d.Sampled {
			result.Decision = sdktrace.RecordAndSample
		}
		result.Attributes = []attribute.KeyValue{attribute.String(AttrReason, string(d.Reason))}
	case parent.IsSampled():
		result.Decision = sdktrace.RecordAndSample
	}
	return result
}

// Description implements sdktrace.Sampler.
func (s *SessionSampler) Description() string {
	return "NadiSessionSampler"
}
