// Package config provides configuration management for Nadi.
//
// This package handles loading, validating, and watching configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("nadi.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("nadi.yaml")
//
// Passing an empty path to LoadConfigWithEnvOverrides starts from Default.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention NADI_SECTION_FIELD.
// For example:
//
//   - NADI_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - NADI_SAMPLING_RATE overrides sampling.rate
//   - NADI_TRACING_PROPAGATION_TARGETS overrides tracing.propagation_targets (comma separated)
//   - NADI_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Field-level rules are declared with `validate` struct tags and checked
// with go-playground/validator; cross-field rules (duplicate rule and
// pattern names, conflicting endpoint paths) are checked by hand. All
// failures are collected into a single ValidationError.
//
// Sampling rates are not range checked: the sampling engine clamps them
// into [0, 1].
//
// # Hot Reload
//
// Watcher observes the configuration file with fsnotify and hands each
// successfully reloaded Config to a callback:
//
//	w, _ := config.NewWatcher("nadi.yaml", logger)
//	go w.Watch(ctx, func(cfg *config.Config) error {
//	    return gov.Apply(cfg)
//	})
//
// A file that fails to load or validate is logged and ignored.
package config
