package governor

import (
	"github.com/nadi-pro/browser/pkg/sampling"
)

// Status is a point-in-time view of the governor.
type Status struct {
	SessionID string `json:"session_id"`

	Sampling SamplingStatus `json:"sampling"`
	Privacy  PrivacyStatus  `json:"privacy"`
	Tracing  TracingStatus  `json:"tracing"`
}

// SamplingStatus describes the sampling engine.
type SamplingStatus struct {
	State          string             `json:"state"`
	Decision       *sampling.Decision `json:"decision,omitempty"`
	GlobalRate     float64            `json:"global_rate"`
	EffectiveRate  float64            `json:"effective_rate"`
	AdaptiveEvents int                `json:"adaptive_events"`
	AdaptiveErrors int                `json:"adaptive_errors"`
	Rules          []string           `json:"rules"`
}

// PrivacyStatus describes the privacy engine.
type PrivacyStatus struct {
	Enabled  bool     `json:"enabled"`
	Strategy string   `json:"strategy"`
	Patterns []string `json:"patterns"`
}

// TracingStatus describes propagation.
type TracingStatus struct {
	Enabled bool     `json:"enabled"`
	TraceID string   `json:"trace_id"`
	Sampled bool     `json:"sampled"`
	Targets []string `json:"targets"`
}

// Status returns a snapshot of the governor.
func (g *Governor) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Status{SessionID: g.sessionID}

	s.Sampling.State = g.sampler.State().String()
	if d, ok := g.sampler.Decision(); ok {
		s.Sampling.Decision = &d
	}
	s.Sampling.GlobalRate = g.sampler.GlobalRate()
	s.Sampling.EffectiveRate = g.sampler.EffectiveRate()
	s.Sampling.AdaptiveEvents, s.Sampling.AdaptiveErrors = g.sampler.AdaptiveStats()
	s.Sampling.Rules = []string{}
	for _, r := range g.sampler.Rules() {
		s.Sampling.Rules = append(s.Sampling.Rules, r.Name)
	}

	s.Privacy = PrivacyStatus{
		Enabled:  g.privacy.Enabled(),
		Strategy: string(g.privacy.Strategy()),
		Patterns: g.privacy.Patterns(),
	}

	current := g.trace.Current()
	s.Tracing = TracingStatus{
		Enabled: g.trace.Enabled(),
		TraceID: current.TraceID,
		Sampled: current.Sampled,
		Targets: []string{},
	}
	for _, t := range g.trace.Targets() {
		s.Tracing.Targets = append(s.Tracing.Targets, t.String())
	}
	return s
}
