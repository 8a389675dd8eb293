package governor

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/privacy"
	"github.com/nadi-pro/browser/pkg/sampling"
	"github.com/nadi-pro/browser/pkg/tracecontext"
)

// TraceOptions converts the propagation section into manager options.
func TraceOptions(cfg config.TracingConfig) (tracecontext.Options, error) {
	targets, err := tracecontext.ParseTargets(cfg.PropagationTargets)
	if err != nil {
		return tracecontext.Options{}, fmt.Errorf("propagation targets: %w", err)
	}
	return tracecontext.Options{
		Enabled:    cfg.Enabled,
		Origin:     cfg.Origin,
		Targets:    targets,
		TraceState: cfg.TraceState,
		Vendor:     cfg.Vendor,
	}, nil
}

// SamplingOptions converts the sampling section into engine options.
func SamplingOptions(cfg config.SamplingConfig) sampling.Options {
	return sampling.Options{
		GlobalRate:               cfg.Rate,
		Rules:                    Rules(cfg.Rules),
		AlwaysSampleErrors:       cfg.AlwaysSampleErrors,
		AlwaysSampleSlowSessions: cfg.AlwaysSampleSlowSessions,
		Adaptive:                 cfg.Adaptive.Enabled,
	}
}

// Rules converts configured rules into sampling rules.
func Rules(in []config.RuleConfig) []sampling.Rule {
	if len(in) == 0 {
		return nil
	}
	out := make([]sampling.Rule, 0, len(in))
	for _, rc := range in {
		devices := make([]sampling.DeviceType, 0, len(rc.DeviceTypes))
		for _, d := range rc.DeviceTypes {
			devices = append(devices, sampling.DeviceType(d))
		}
		out = append(out, sampling.Rule{
			Name:     rc.Name,
			Rate:     rc.Rate,
			Priority: rc.Priority,
			Conditions: sampling.Conditions{
				RoutePrefixes:   rc.RoutePrefixes,
				DeviceTypes:     devices,
				ConnectionTypes: rc.ConnectionTypes,
			},
		})
	}
	return out
}

// PrivacyConfig converts the privacy section into engine configuration.
// The logger and failure hook are left for the caller.
func PrivacyConfig(cfg config.PrivacyConfig) privacy.Config {
	specs := make([]privacy.PatternSpec, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		specs = append(specs, privacy.PatternSpec{Name: p.Name, Expr: p.Pattern})
	}
	return privacy.Config{
		Enabled:            cfg.Enabled,
		Strategy:           privacy.Strategy(cfg.Strategy),
		SensitiveURLParams: cfg.SensitiveURLParams,
		SensitiveFields:    cfg.SensitiveFields,
		Patterns:           specs,
		ValidateCards:      cfg.ValidateCards,
	}
}

// SlowThreshold returns the configured slow-session threshold.
func SlowThreshold(cfg config.SamplingConfig) time.Duration {
	return time.Duration(cfg.SlowSessionThresholdMS) * time.Millisecond
}

// newPrivacyEngine rejects a configuration carrying an invalid pattern;
// privacy.NewEngine alone would skip it.
func newPrivacyEngine(cfg config.PrivacyConfig, logger *slog.Logger, onFailure func(string)) (*privacy.Engine, error) {
	pc := PrivacyConfig(cfg)
	for _, spec := range pc.Patterns {
		if _, err := spec.Compile(); err != nil {
			return nil, err
		}
	}
	pc.Logger = logger
	pc.OnPatternFailure = onFailure
	return privacy.NewEngine(pc)
}
