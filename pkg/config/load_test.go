package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nadi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: "5s"
tracing:
  origin: "https://shop.example.com"
  propagation_targets:
    - "https://api.example.com"
    - "/^https:\\/\\/cdn\\./"
sampling:
  rate: 0.25
  always_sample_errors: false
  rules:
    - name: checkout
      rate: 1.0
      priority: 10
      route_prefixes: ["/checkout"]
      device_types: ["mobile"]
privacy:
  strategy: partial
  patterns:
    - name: order_id
      pattern: "ORD-[0-9]{6}"
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected read timeout 5s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if len(cfg.Tracing.PropagationTargets) != 2 {
		t.Errorf("expected 2 propagation targets, got %v", cfg.Tracing.PropagationTargets)
	}
	if cfg.Sampling.Rate != 0.25 {
		t.Errorf("expected rate 0.25, got %v", cfg.Sampling.Rate)
	}
	if cfg.Sampling.AlwaysSampleErrors {
		t.Error("expected explicit false to override the default")
	}
	if len(cfg.Sampling.Rules) != 1 || cfg.Sampling.Rules[0].Name != "checkout" {
		t.Fatalf("expected checkout rule, got %+v", cfg.Sampling.Rules)
	}
	if cfg.Sampling.Rules[0].Priority != 10 {
		t.Errorf("expected priority 10, got %d", cfg.Sampling.Rules[0].Priority)
	}
	if !cfg.Privacy.Enabled {
		t.Error("expected privacy to stay enabled when the key is absent")
	}
	if cfg.Privacy.Strategy != "partial" {
		t.Errorf("expected strategy partial, got %q", cfg.Privacy.Strategy)
	}
	if cfg.Telemetry.Logging.Format != "text" {
		t.Errorf("expected text logging, got %q", cfg.Telemetry.Logging.Format)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "invalid yaml",
			content: "server: [unclosed",
			wantMsg: "failed to parse configuration",
		},
		{
			name:    "unknown key",
			content: "servre:\n  listen_address: x\n",
			wantMsg: "failed to parse configuration",
		},
		{
			name:    "invalid strategy",
			content: "privacy:\n  strategy: shred\n",
			wantMsg: "privacy.strategy",
		},
		{
			name:    "bad pattern",
			content: "privacy:\n  patterns:\n    - name: broken\n      pattern: \"(unclosed\"\n",
			wantMsg: "privacy.patterns[0].pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("empty document should load defaults: %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("expected default listen address, got %q", cfg.Server.ListenAddress)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"NADI_SERVER_LISTEN_ADDRESS":        ":7000",
		"NADI_SERVER_SHUTDOWN_TIMEOUT":      "3s",
		"NADI_SAMPLING_RATE":                "0.5",
		"NADI_SAMPLING_ALWAYS_SAMPLE_SLOW":  "true",
		"NADI_TRACING_PROPAGATION_TARGETS":  "https://a.example.com, api.example.com,,",
		"NADI_PRIVACY_STRATEGY":             "hash",
		"NADI_TELEMETRY_LOGGING_LEVEL":      "warn",
		"NADI_SAMPLING_SLOW_THRESHOLD_MS":   "1500",
		"NADI_TELEMETRY_TRACING_EXPORTER":   "stdout",
		"NADI_PRIVACY_SENSITIVE_URL_PARAMS": "ticket",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	if err := applyEnvOverrides(cfg, lookup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddress != ":7000" {
		t.Errorf("expected listen address override, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("expected shutdown timeout 3s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Sampling.Rate != 0.5 {
		t.Errorf("expected rate 0.5, got %v", cfg.Sampling.Rate)
	}
	if !cfg.Sampling.AlwaysSampleSlowSessions {
		t.Error("expected slow sessions override")
	}
	if cfg.Sampling.SlowSessionThresholdMS != 1500 {
		t.Errorf("expected threshold 1500, got %d", cfg.Sampling.SlowSessionThresholdMS)
	}
	want := []string{"https://a.example.com", "api.example.com"}
	if strings.Join(cfg.Tracing.PropagationTargets, "|") != strings.Join(want, "|") {
		t.Errorf("expected targets %v, got %v", want, cfg.Tracing.PropagationTargets)
	}
	if cfg.Privacy.Strategy != "hash" {
		t.Errorf("expected strategy hash, got %q", cfg.Privacy.Strategy)
	}
	if len(cfg.Privacy.SensitiveURLParams) != 1 || cfg.Privacy.SensitiveURLParams[0] != "ticket" {
		t.Errorf("expected sensitive params [ticket], got %v", cfg.Privacy.SensitiveURLParams)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Tracing.Exporter != "stdout" {
		t.Errorf("expected exporter stdout, got %q", cfg.Telemetry.Tracing.Exporter)
	}
}

func TestApplyEnvOverrides_Malformed(t *testing.T) {
	env := map[string]string{
		"NADI_SAMPLING_RATE":         "lots",
		"NADI_SERVER_READ_TIMEOUT":   "soon",
		"NADI_PRIVACY_ENABLED":       "maybe",
		"NADI_SERVER_LISTEN_ADDRESS": ":9000",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	err := applyEnvOverrides(cfg, lookup)

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(verr.Errors), verr.Errors)
	}
	if cfg.Server.ListenAddress != ":9000" {
		t.Errorf("well-formed overrides should still apply, got %q", cfg.Server.ListenAddress)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "sampling:\n  rate: 0.1\n")
	t.Setenv("NADI_SAMPLING_RATE", "0.9")
	t.Setenv("NADI_PRIVACY_ENABLED", "false")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Sampling.Rate != 0.9 {
		t.Errorf("expected environment to win, got rate %v", cfg.Sampling.Rate)
	}
	if cfg.Privacy.Enabled {
		t.Error("expected privacy to be disabled by environment")
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("NADI_SERVER_LISTEN_ADDRESS", ":8181")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddress != ":8181" {
		t.Errorf("expected override on defaults, got %q", cfg.Server.ListenAddress)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidAfterOverride(t *testing.T) {
	t.Setenv("NADI_TELEMETRY_LOGGING_LEVEL", "chatty")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "after environment overrides") {
		t.Errorf("unexpected error: %v", err)
	}
}
