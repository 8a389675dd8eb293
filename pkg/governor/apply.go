package governor

import (
	"fmt"

	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/sampling"
	"github.com/nadi-pro/browser/pkg/tracecontext"
)

// Apply pushes a reloaded configuration into the running engines. The
// session ID, the memoized sampling decision, the adaptive counters and
// the current trace identifiers survive. Nothing changes when cfg is
// rejected.
func (g *Governor) Apply(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("governor: configuration is required")
	}

	topts, err := TraceOptions(cfg.Tracing)
	if err != nil {
		return err
	}
	rules := Rules(cfg.Sampling.Rules)
	// Validate rules before touching the live engine.
	if _, err := sampling.NewEngine(sampling.Options{Rules: rules}); err != nil {
		return fmt.Errorf("sampling rules: %w", err)
	}
	priv, err := newPrivacyEngine(cfg.Privacy, g.logger, g.metrics.RecordPatternFailure)
	if err != nil {
		return fmt.Errorf("privacy engine: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if topts.Vendor != g.cfg.Tracing.Vendor {
		current := g.trace.Current()
		topts.Entropy = g.entropy
		g.trace = tracecontext.NewManager(topts)
		g.trace.Adopt(current)
	} else {
		g.trace.SetEnabled(topts.Enabled)
		g.trace.SetOrigin(topts.Origin)
		g.trace.SetTargets(topts.Targets)
	}
	g.trace.SetTraceState(topts.TraceState)

	g.sampler.SetGlobalRate(cfg.Sampling.Rate)
	g.sampler.SetAlwaysSampleErrors(cfg.Sampling.AlwaysSampleErrors)
	g.sampler.SetAlwaysSampleSlowSessions(cfg.Sampling.AlwaysSampleSlowSessions)
	g.sampler.SetAdaptive(cfg.Sampling.Adaptive.Enabled)
	_ = g.sampler.SetRules(rules)

	g.privacy = priv
	g.cfg = cfg
	g.recordRates()

	g.logger.Info("configuration applied",
		"rules", len(rules),
		"patterns", len(priv.Patterns()),
		"propagation_targets", len(topts.Targets),
	)
	return nil
}
