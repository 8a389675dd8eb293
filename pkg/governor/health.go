package governor

import (
	"context"
	"errors"

	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/telemetry/health"
)

// RegisterChecks registers the config, privacy and sampling readiness
// checks on c.
func (g *Governor) RegisterChecks(c *health.Checker) {
	c.RegisterCheck("config", g.checkConfig)
	c.RegisterCheck("privacy", g.checkPrivacy)
	c.RegisterCheck("sampling", g.checkSampling)
}

func (g *Governor) checkConfig(context.Context) error {
	return config.Validate(g.Config())
}

func (g *Governor) checkPrivacy(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.privacy.Enabled() && len(g.privacy.Patterns()) == 0 {
		return errors.New("no patterns registered")
	}
	return nil
}

func (g *Governor) checkSampling(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.sampler.EffectiveRate() <= 0 && len(g.sampler.Rules()) == 0 &&
		!g.cfg.Sampling.AlwaysSampleErrors && !g.cfg.Sampling.AlwaysSampleSlowSessions {
		return errors.New("every session is dropped: rate is 0 with no rules or overrides")
	}
	return nil
}
