package tracing

import (
	"errors"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/nadi-pro/browser/pkg/sampling"
)

// Sampler strategies:
//   - always: Sample 100% of traces (development/debugging)
//   - never: Sample 0% of traces
//   - ratio: Sample a percentage of traces by trace ID
//   - session: Follow the browser session's sampling decision
const (
	// SamplerAlways samples all traces
	SamplerAlways = "always"

	// SamplerNever samples no traces
	SamplerNever = "never"

	// SamplerRatio samples a percentage of traces
	SamplerRatio = "ratio"

	// SamplerSession samples exactly the spans of sampled sessions
	SamplerSession = "session"
)

// createSampler creates a sampler based on the strategy and ratio.
//
// The always, never and ratio samplers are wrapped in ParentBased, so a
// sampled parent keeps its children sampled. The session sampler already
// falls back to the parent until the session is decided.
func createSampler(strategy string, ratio float64, source sampling.DecisionSource) (sdktrace.Sampler, error) {
	var base sdktrace.Sampler

	switch strategy {
	case SamplerAlways:
		base = sdktrace.AlwaysSample()

	case SamplerNever:
		base = sdktrace.NeverSample()

	case SamplerRatio:
		if ratio < 0.0 || ratio > 1.0 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
		}
		base = sdktrace.TraceIDRatioBased(ratio)

	case SamplerSession, "":
		if source == nil {
			return nil, errors.New("session sampler requires a decision source")
		}
		return sampling.NewSessionSampler(source), nil

	default:
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: always, never, ratio, session)", strategy)
	}

	return sdktrace.ParentBased(base), nil
}
