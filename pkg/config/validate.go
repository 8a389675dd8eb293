package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/nadi-pro/browser/pkg/tracecontext"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// cronParser accepts standard five-field expressions and descriptors such
// as "@hourly".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a window schedule expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	return cronParser.Parse(expr)
}

// structValidate checks the `validate` struct tags. Field names in its
// errors are the yaml keys.
var structValidate = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := ParseSchedule(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ValidationError{Errors: []FieldError{{Field: "config", Message: "configuration is nil"}}}
	}

	errs := validateTags(cfg)

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTracing(&cfg.Tracing)...)
	errs = append(errs, validateSampling(&cfg.Sampling)...)
	errs = append(errs, validatePrivacy(&cfg.Privacy)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateTags runs the struct tag rules and converts their failures into
// FieldErrors.
func validateTags(cfg *Config) []FieldError {
	err := structValidate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "config", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe.Namespace()), Message: tagMessage(fe)})
	}
	return out
}

// fieldPath drops the root type name from a validator namespace:
// "Config.server.listen_address" becomes "server.listen_address".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "value is required"
	case "oneof":
		return fmt.Sprintf("invalid value %q: must be one of %s", fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return fmt.Sprintf("invalid URL %q", fmt.Sprint(fe.Value()))
	case "cron":
		return fmt.Sprintf("invalid cron expression %q", fmt.Sprint(fe.Value()))
	case "regexp":
		return fmt.Sprintf("invalid regular expression %q", fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxHeaderBytes > 10*1024*1024 { // 10MB is excessive
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.requests_per_second",
				Message: "requests per second must be positive when rate limiting is enabled",
			})
		}
		if cfg.RateLimit.Burst <= 0 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.burst",
				Message: "burst must be positive when rate limiting is enabled",
			})
		}
	}

	if cfg.CORS.Enabled && len(cfg.CORS.AllowedOrigins) == 0 {
		errs = append(errs, FieldError{
			Field:   "server.cors.allowed_origins",
			Message: "at least one origin is required when CORS is enabled",
		})
	}
	if cfg.CORS.AllowCredentials && slices.Contains(cfg.CORS.AllowedOrigins, "*") {
		errs = append(errs, FieldError{
			Field:   "server.cors.allow_credentials",
			Message: "credentials cannot be allowed for the \"*\" origin",
		})
	}

	return errs
}

// validateTracing validates propagation configuration.
func validateTracing(cfg *TracingConfig) []FieldError {
	var errs []FieldError

	if _, err := tracecontext.ParseTargets(cfg.PropagationTargets); err != nil {
		errs = append(errs, FieldError{
			Field:   "tracing.propagation_targets",
			Message: err.Error(),
		})
	}

	if strings.ContainsAny(cfg.Vendor, "=, \t") {
		errs = append(errs, FieldError{
			Field:   "tracing.vendor",
			Message: fmt.Sprintf("invalid tracestate key %q", cfg.Vendor),
		})
	}

	return errs
}

// validateSampling validates sampling configuration. Rates are clamped by
// the engine and are not range checked here.
func validateSampling(cfg *SamplingConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool, len(cfg.Rules))
	for i, r := range cfg.Rules {
		if r.Name == "" {
			continue
		}
		if seen[r.Name] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("sampling.rules[%d].name", i),
				Message: fmt.Sprintf("duplicate rule name %q", r.Name),
			})
		}
		seen[r.Name] = true
	}

	return errs
}

// validatePrivacy validates privacy configuration.
func validatePrivacy(cfg *PrivacyConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool, len(cfg.Patterns))
	for i, p := range cfg.Patterns {
		if p.Name == "" {
			continue
		}
		if seen[p.Name] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("privacy.patterns[%d].name", i),
				Message: fmt.Sprintf("duplicate pattern name %q", p.Name),
			})
		}
		seen[p.Name] = true
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Exporter == "otlp" && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when the otlp exporter is enabled",
		})
	}

	if cfg.Health.Enabled {
		paths := map[string]string{
			"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
			"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
			"telemetry.health.version_path":   cfg.Health.VersionPath,
		}
		for _, field := range []string{
			"telemetry.health.liveness_path",
			"telemetry.health.readiness_path",
			"telemetry.health.version_path",
		} {
			if !strings.HasPrefix(paths[field], "/") {
				errs = append(errs, FieldError{
					Field:   field,
					Message: "path must start with '/'",
				})
				continue
			}
			if cfg.Metrics.Enabled && paths[field] == cfg.Metrics.Path {
				errs = append(errs, FieldError{
					Field:   field,
					Message: fmt.Sprintf("path %q conflicts with the metrics path", paths[field]),
				})
			}
		}
	}

	return errs
}
