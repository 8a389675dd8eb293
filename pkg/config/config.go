package config

import "time"

// Config is the root configuration structure for Nadi.
// It contains the governance sections (trace propagation, sampling,
// privacy), the HTTP API server and telemetry settings.
type Config struct {
	// Server contains HTTP API server configuration including listen
	// address, timeouts and rate limiting.
	Server ServerConfig `yaml:"server"`

	// Tracing contains trace context propagation configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Sampling contains the sampling decision engine configuration.
	Sampling SamplingConfig `yaml:"sampling"`

	// Privacy contains the PII redaction engine configuration.
	Privacy PrivacyConfig `yaml:"privacy"`

	// Telemetry contains configuration for observability including logging,
	// metrics, trace export and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address" validate:"required"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"gte=0"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout" validate:"gte=0"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes" validate:"gte=0"`

	// MaxBodyBytes limits request body size for API calls.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes" validate:"gte=0"`

	// RateLimit throttles API requests per server.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// CORS controls cross-origin access for browser collectors.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains cross-origin resource sharing settings.
type CORSConfig struct {
	// Enabled controls whether CORS headers are written.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists origins allowed to call the API. "*" allows any.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedHeaders lists request headers allowed in preflight.
	// Default: ["Content-Type", "X-Request-ID", "traceparent", "tracestate"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the preflight cache lifetime.
	// Default: 1h
	MaxAge time.Duration `yaml:"max_age" validate:"gte=0"`

	// AllowCredentials sets Access-Control-Allow-Credentials.
	AllowCredentials bool `yaml:"allow_credentials"`
}

// RateLimitConfig configures the token bucket applied to API requests.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained request rate.
	// Default: 100
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`

	// Burst is the maximum burst size.
	// Default: 200
	Burst int `yaml:"burst" validate:"gte=0"`
}

// TracingConfig contains trace context propagation configuration.
type TracingConfig struct {
	// Enabled controls whether trace headers are attached to outgoing
	// requests.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Origin is the page origin relative URLs are resolved against.
	// Example: "https://shop.example.com"
	Origin string `yaml:"origin" validate:"omitempty,url"`

	// PropagationTargets is the allow-list of URLs that receive trace
	// headers. Entries are URL prefixes, bare hostnames, or regular
	// expressions written between slashes ("/^https:\/\/api\./").
	PropagationTargets []string `yaml:"propagation_targets"`

	// TraceState is extra vendor state appended after our own member.
	// Format: "vendor1=value1,vendor2=value2"
	TraceState string `yaml:"trace_state"`

	// Vendor is our tracestate key.
	// Default: "nadi"
	Vendor string `yaml:"vendor"`
}

// SamplingConfig contains sampling decision engine configuration.
type SamplingConfig struct {
	// Rate is the global sampling rate. Out-of-range values are clamped.
	// Default: 1.0
	Rate float64 `yaml:"rate"`

	// AlwaysSampleErrors samples every session that carries an error.
	// Default: true
	AlwaysSampleErrors bool `yaml:"always_sample_errors"`

	// AlwaysSampleSlowSessions samples every slow session.
	// Default: false
	AlwaysSampleSlowSessions bool `yaml:"always_sample_slow_sessions"`

	// SlowSessionThresholdMS is the page load time, in milliseconds, above
	// which a session is slow. Zero disables slow-session detection.
	// Default: 3000
	SlowSessionThresholdMS int `yaml:"slow_session_threshold_ms" validate:"gte=0"`

	// Adaptive configures error-rate driven sampling.
	Adaptive AdaptiveConfig `yaml:"adaptive"`

	// Rules are named sampling rules.
	Rules []RuleConfig `yaml:"rules" validate:"dive"`
}

// SlowSessionThreshold returns SlowSessionThresholdMS as a duration.
func (s SamplingConfig) SlowSessionThreshold() time.Duration {
	return time.Duration(s.SlowSessionThresholdMS) * time.Millisecond
}

// AdaptiveConfig configures adaptive sampling.
type AdaptiveConfig struct {
	// Enabled turns adaptive sampling on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// WindowSchedule is a cron expression at which the adaptive counters
	// reset, so the rate follows recent errors. Empty disables resets.
	// Default: "*/5 * * * *"
	WindowSchedule string `yaml:"window_schedule" validate:"omitempty,cron"`
}

// RuleConfig is the configuration form of a sampling rule.
type RuleConfig struct {
	// Name identifies the rule. Names must be unique.
	Name string `yaml:"name" validate:"required"`

	// Rate is the sampling probability for matching sessions.
	Rate float64 `yaml:"rate"`

	// Priority orders rule evaluation; higher runs first.
	Priority int `yaml:"priority"`

	// RoutePrefixes matches routes starting with any prefix.
	RoutePrefixes []string `yaml:"route_prefixes"`

	// DeviceTypes matches any of the listed device classes.
	DeviceTypes []string `yaml:"device_types" validate:"dive,oneof=desktop mobile tablet"`

	// ConnectionTypes matches any of the listed connection types.
	ConnectionTypes []string `yaml:"connection_types"`
}

// PrivacyConfig contains PII redaction engine configuration.
type PrivacyConfig struct {
	// Enabled controls whether masking is applied.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Strategy is the masking strategy.
	// Options: "redact", "partial", "hash"
	// Default: "redact"
	Strategy string `yaml:"strategy" validate:"omitempty,oneof=redact partial hash"`

	// SensitiveURLParams are query parameters whose values are replaced.
	// Nil selects the built-in list.
	SensitiveURLParams []string `yaml:"sensitive_url_params"`

	// SensitiveFields are object keys whose values are always redacted.
	// Nil selects the built-in list.
	SensitiveFields []string `yaml:"sensitive_fields"`

	// Patterns are custom named PII patterns. A name matching a built-in
	// pattern replaces it.
	Patterns []PatternConfig `yaml:"patterns" validate:"dive"`

	// ValidateCards masks credit card matches only when they pass the Luhn
	// check.
	// Default: false
	ValidateCards bool `yaml:"validate_cards"`
}

// PatternConfig defines a custom PII pattern.
type PatternConfig struct {
	// Name is the pattern name.
	Name string `yaml:"name" validate:"required"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern" validate:"required,regexp"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry span export configuration.
	Tracing OTelConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" validate:"required,oneof=debug info warn error"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format" validate:"required,oneof=json text console"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII masks PII in log arguments with the privacy engine.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// BufferSize is the size of the async log buffer.
	// Default: 10000
	BufferSize int `yaml:"buffer_size" validate:"gte=0"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "nadi"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "governor"
	Subsystem string `yaml:"subsystem"`
}

// OTelConfig contains OpenTelemetry span export configuration.
type OTelConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the span sampling strategy.
	// Options: "always", "never", "ratio", "session"
	// Default: "session"
	Sampler string `yaml:"sampler" validate:"omitempty,oneof=always never ratio session"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio" validate:"gte=0,lte=1"`

	// Exporter determines the span exporter.
	// Options: "otlp", "stdout"
	// Default: "otlp"
	Exporter string `yaml:"exporter" validate:"omitempty,oneof=otlp stdout"`

	// Endpoint is the OTLP collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "nadi"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout" validate:"gte=0"`
}
