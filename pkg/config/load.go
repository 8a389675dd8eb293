package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "NADI_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default, applies defaults and validates. Unknown
// keys are rejected so typos surface instead of being ignored.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention NADI_SECTION_FIELD (e.g., NADI_SERVER_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from Default.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg = Default()
	} else if cfg, err = LoadConfig(path); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

// envSetter applies one variable. It reports malformed values.
type envSetter func(cfg *Config, value string) error

var envOverrides = map[string]envSetter{
	// Server
	"SERVER_LISTEN_ADDRESS":          setString(func(c *Config) *string { return &c.Server.ListenAddress }),
	"SERVER_READ_TIMEOUT":            setDuration(func(c *Config) *time.Duration { return &c.Server.ReadTimeout }),
	"SERVER_WRITE_TIMEOUT":           setDuration(func(c *Config) *time.Duration { return &c.Server.WriteTimeout }),
	"SERVER_IDLE_TIMEOUT":            setDuration(func(c *Config) *time.Duration { return &c.Server.IdleTimeout }),
	"SERVER_SHUTDOWN_TIMEOUT":        setDuration(func(c *Config) *time.Duration { return &c.Server.ShutdownTimeout }),
	"SERVER_RATE_LIMIT_ENABLED":      setBool(func(c *Config) *bool { return &c.Server.RateLimit.Enabled }),
	"SERVER_RATE_LIMIT_RPS":          setFloat(func(c *Config) *float64 { return &c.Server.RateLimit.RequestsPerSecond }),
	"SERVER_RATE_LIMIT_BURST":        setInt(func(c *Config) *int { return &c.Server.RateLimit.Burst }),
	"SERVER_CORS_ENABLED":            setBool(func(c *Config) *bool { return &c.Server.CORS.Enabled }),
	"SERVER_CORS_ALLOWED_ORIGINS":    setList(func(c *Config) *[]string { return &c.Server.CORS.AllowedOrigins }),
	"TRACING_ENABLED":                setBool(func(c *Config) *bool { return &c.Tracing.Enabled }),
	"TRACING_ORIGIN":                 setString(func(c *Config) *string { return &c.Tracing.Origin }),
	"TRACING_PROPAGATION_TARGETS":    setList(func(c *Config) *[]string { return &c.Tracing.PropagationTargets }),
	"TRACING_TRACE_STATE":            setString(func(c *Config) *string { return &c.Tracing.TraceState }),
	"TRACING_VENDOR":                 setString(func(c *Config) *string { return &c.Tracing.Vendor }),
	"SAMPLING_RATE":                  setFloat(func(c *Config) *float64 { return &c.Sampling.Rate }),
	"SAMPLING_ALWAYS_SAMPLE_ERRORS":  setBool(func(c *Config) *bool { return &c.Sampling.AlwaysSampleErrors }),
	"SAMPLING_ALWAYS_SAMPLE_SLOW":    setBool(func(c *Config) *bool { return &c.Sampling.AlwaysSampleSlowSessions }),
	"SAMPLING_SLOW_THRESHOLD_MS":     setInt(func(c *Config) *int { return &c.Sampling.SlowSessionThresholdMS }),
	"SAMPLING_ADAPTIVE_ENABLED":      setBool(func(c *Config) *bool { return &c.Sampling.Adaptive.Enabled }),
	"SAMPLING_ADAPTIVE_SCHEDULE":     setString(func(c *Config) *string { return &c.Sampling.Adaptive.WindowSchedule }),
	"PRIVACY_ENABLED":                setBool(func(c *Config) *bool { return &c.Privacy.Enabled }),
	"PRIVACY_STRATEGY":               setString(func(c *Config) *string { return &c.Privacy.Strategy }),
	"PRIVACY_SENSITIVE_URL_PARAMS":   setList(func(c *Config) *[]string { return &c.Privacy.SensitiveURLParams }),
	"PRIVACY_SENSITIVE_FIELDS":       setList(func(c *Config) *[]string { return &c.Privacy.SensitiveFields }),
	"PRIVACY_VALIDATE_CARDS":         setBool(func(c *Config) *bool { return &c.Privacy.ValidateCards }),
	"TELEMETRY_LOGGING_LEVEL":        setString(func(c *Config) *string { return &c.Telemetry.Logging.Level }),
	"TELEMETRY_LOGGING_FORMAT":       setString(func(c *Config) *string { return &c.Telemetry.Logging.Format }),
	"TELEMETRY_METRICS_ENABLED":      setBool(func(c *Config) *bool { return &c.Telemetry.Metrics.Enabled }),
	"TELEMETRY_METRICS_PATH":         setString(func(c *Config) *string { return &c.Telemetry.Metrics.Path }),
	"TELEMETRY_TRACING_ENABLED":      setBool(func(c *Config) *bool { return &c.Telemetry.Tracing.Enabled }),
	"TELEMETRY_TRACING_EXPORTER":     setString(func(c *Config) *string { return &c.Telemetry.Tracing.Exporter }),
	"TELEMETRY_TRACING_ENDPOINT":     setString(func(c *Config) *string { return &c.Telemetry.Tracing.Endpoint }),
	"TELEMETRY_TRACING_SAMPLER":      setString(func(c *Config) *string { return &c.Telemetry.Tracing.Sampler }),
	"TELEMETRY_TRACING_SAMPLE_RATIO": setFloat(func(c *Config) *float64 { return &c.Telemetry.Tracing.SampleRatio }),
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Malformed values are collected into a ValidationError.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	var errs []FieldError
	for suffix, set := range envOverrides {
		name := EnvPrefix + suffix
		val, ok := lookup(name)
		if !ok || val == "" {
			continue
		}
		if err := set(cfg, val); err != nil {
			errs = append(errs, FieldError{Field: name, Message: err.Error()})
		}
	}
	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func setString(field func(*Config) *string) envSetter {
	return func(cfg *Config, v string) error {
		*field(cfg) = v
		return nil
	}
}

func setList(field func(*Config) *[]string) envSetter {
	return func(cfg *Config, v string) error {
		var out []string
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		*field(cfg) = out
		return nil
	}
}

func setBool(field func(*Config) *bool) envSetter {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		*field(cfg) = b
		return nil
	}
}

func setInt(field func(*Config) *int) envSetter {
	return func(cfg *Config, v string) error {
		i, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		*field(cfg) = i
		return nil
	}
}

func setFloat(field func(*Config) *float64) envSetter {
	return func(cfg *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", v)
		}
		*field(cfg) = f
		return nil
	}
}

func setDuration(field func(*Config) *time.Duration) envSetter {
	return func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q", v)
		}
		*field(cfg) = d
		return nil
	}
}
