package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
	}
	if !cfg.Tracing.Enabled {
		t.Error("expected propagation to be enabled by default")
	}
	if cfg.Tracing.Vendor != DefaultTracingVendor {
		t.Errorf("expected vendor %q, got %q", DefaultTracingVendor, cfg.Tracing.Vendor)
	}
	if cfg.Sampling.Rate != DefaultSamplingRate {
		t.Errorf("expected sampling rate %v, got %v", DefaultSamplingRate, cfg.Sampling.Rate)
	}
	if !cfg.Sampling.AlwaysSampleErrors {
		t.Error("expected errors to be sampled by default")
	}
	if cfg.Sampling.AlwaysSampleSlowSessions {
		t.Error("expected slow sessions not to be force sampled by default")
	}
	if got := cfg.Sampling.SlowSessionThreshold(); got != 3*time.Second {
		t.Errorf("expected slow threshold 3s, got %v", got)
	}
	if cfg.Sampling.Adaptive.WindowSchedule != DefaultAdaptiveSchedule {
		t.Errorf("expected window schedule %q, got %q", DefaultAdaptiveSchedule, cfg.Sampling.Adaptive.WindowSchedule)
	}
	if !cfg.Privacy.Enabled || cfg.Privacy.Strategy != DefaultPrivacyStrategy {
		t.Errorf("expected privacy enabled with %q, got enabled=%v strategy=%q",
			DefaultPrivacyStrategy, cfg.Privacy.Enabled, cfg.Privacy.Strategy)
	}
	if cfg.Privacy.SensitiveFields != nil || cfg.Privacy.SensitiveURLParams != nil {
		t.Error("expected nil sensitive lists so the built-in lists apply")
	}
	if !cfg.Telemetry.Logging.RedactPII {
		t.Error("expected log redaction to be enabled by default")
	}
	if !cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Metrics.Path != DefaultPrometheusPath {
		t.Errorf("expected metrics enabled at %q", DefaultPrometheusPath)
	}
	if cfg.Telemetry.Tracing.Enabled {
		t.Error("expected span export to be disabled by default")
	}
	if !cfg.Telemetry.Tracing.OTLP.Insecure {
		t.Error("expected insecure OTLP by default")
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("default configuration should validate: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets zero-value defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ReadTimeout != DefaultReadTimeout {
					t.Errorf("expected read timeout %v, got %v", DefaultReadTimeout, cfg.Server.ReadTimeout)
				}
				if cfg.Server.ShutdownTimeout != DefaultShutdownTimeout {
					t.Errorf("expected shutdown timeout %v, got %v", DefaultShutdownTimeout, cfg.Server.ShutdownTimeout)
				}
				if cfg.Server.MaxBodyBytes != DefaultMaxBodyBytes {
					t.Errorf("expected max body bytes %d, got %d", DefaultMaxBodyBytes, cfg.Server.MaxBodyBytes)
				}
				if cfg.Server.RateLimit.Burst != DefaultRateLimitBurst {
					t.Errorf("expected burst %d, got %d", DefaultRateLimitBurst, cfg.Server.RateLimit.Burst)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Tracing.Sampler != DefaultOTelSampler {
					t.Errorf("expected sampler %q, got %q", DefaultOTelSampler, cfg.Telemetry.Tracing.Sampler)
				}
				if cfg.Telemetry.Health.ReadinessPath != DefaultHealthReadiness {
					t.Errorf("expected readiness path %q, got %q", DefaultHealthReadiness, cfg.Telemetry.Health.ReadinessPath)
				}
			},
		},
		{
			name:  "zero threshold and empty schedule stay disabled",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Sampling.SlowSessionThresholdMS != 0 {
					t.Errorf("expected threshold to stay 0, got %d", cfg.Sampling.SlowSessionThresholdMS)
				}
				if cfg.Sampling.Adaptive.WindowSchedule != "" {
					t.Errorf("expected empty schedule, got %q", cfg.Sampling.Adaptive.WindowSchedule)
				}
			},
		},
		{
			name: "explicit values are preserved",
			input: Config{
				Server:  ServerConfig{ListenAddress: "0.0.0.0:9000", ReadTimeout: time.Second},
				Tracing: TracingConfig{Vendor: "acme"},
				Privacy: PrivacyConfig{Strategy: "hash"},
				Telemetry: TelemetryConfig{
					Logging: LoggingConfig{Level: "debug", Format: "text"},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddress != "0.0.0.0:9000" {
					t.Errorf("expected listen address to be preserved, got %q", cfg.Server.ListenAddress)
				}
				if cfg.Server.ReadTimeout != time.Second {
					t.Errorf("expected read timeout to be preserved, got %v", cfg.Server.ReadTimeout)
				}
				if cfg.Tracing.Vendor != "acme" {
					t.Errorf("expected vendor to be preserved, got %q", cfg.Tracing.Vendor)
				}
				if cfg.Privacy.Strategy != "hash" {
					t.Errorf("expected strategy to be preserved, got %q", cfg.Privacy.Strategy)
				}
				if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "text" {
					t.Errorf("expected logging settings to be preserved, got %+v", cfg.Telemetry.Logging)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}
