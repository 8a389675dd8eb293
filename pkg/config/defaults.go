package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress    = "127.0.0.1:8080"
	DefaultReadTimeout      = 10 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultIdleTimeout      = 120 * time.Second
	DefaultShutdownTimeout  = 15 * time.Second
	DefaultMaxHeaderBytes   = 1048576 // 1MB
	DefaultMaxBodyBytes     = int64(1048576)
	DefaultRateLimitEnabled = false
	DefaultRateLimitRPS     = 100.0
	DefaultRateLimitBurst   = 200
	DefaultCORSMaxAge       = time.Hour

	// Propagation defaults
	DefaultTracingEnabled = true
	DefaultTracingVendor  = "nadi"

	// Sampling defaults
	DefaultSamplingRate     = 1.0
	DefaultSampleErrors     = true
	DefaultSampleSlow       = false
	DefaultSlowThresholdMS  = 3000
	DefaultAdaptiveEnabled  = false
	DefaultAdaptiveSchedule = "*/5 * * * *"

	// Privacy defaults
	DefaultPrivacyEnabled  = true
	DefaultPrivacyStrategy = "redact"
	DefaultValidateCards   = false

	// Logging and metrics defaults
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "json"
	DefaultLoggingRedactPII  = true
	DefaultLoggingBufferSize = 10000
	DefaultMetricsEnabled    = true
	DefaultPrometheusPath    = "/metrics"
	DefaultMetricsNamespace  = "nadi"
	DefaultMetricsSubsystem  = "governor"

	// Trace export defaults
	DefaultOTelEnabled     = false
	DefaultOTelSampler     = "session"
	DefaultOTelSampleRatio = 0.1
	DefaultOTelExporter    = "otlp"
	DefaultOTelServiceName = "nadi"
	DefaultOTLPInsecure    = true
	DefaultOTLPTimeout     = 10 * time.Second

	// Health defaults
	DefaultHealthEnabled      = true
	DefaultHealthLiveness     = "/health"
	DefaultHealthReadiness    = "/ready"
	DefaultHealthVersion      = "/version"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultCORSAllowedHeaders are the request headers browsers may send.
var DefaultCORSAllowedHeaders = []string{"Content-Type", "X-Request-ID", "traceparent", "tracestate"}

// Default returns a configuration with every default applied, including
// boolean switches that default to true. LoadConfig decodes YAML on top
// of it, so keys absent from the file keep these values.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			RateLimit: RateLimitConfig{Enabled: DefaultRateLimitEnabled},
		},
		Tracing: TracingConfig{Enabled: DefaultTracingEnabled},
		Sampling: SamplingConfig{
			Rate:                     DefaultSamplingRate,
			AlwaysSampleErrors:       DefaultSampleErrors,
			AlwaysSampleSlowSessions: DefaultSampleSlow,
			SlowSessionThresholdMS:   DefaultSlowThresholdMS,
			Adaptive: AdaptiveConfig{
				Enabled:        DefaultAdaptiveEnabled,
				WindowSchedule: DefaultAdaptiveSchedule,
			},
		},
		Privacy: PrivacyConfig{
			Enabled:       DefaultPrivacyEnabled,
			ValidateCards: DefaultValidateCards,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactPII: DefaultLoggingRedactPII},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: OTelConfig{
				Enabled: DefaultOTelEnabled,
				OTLP:    OTLPConfig{Insecure: DefaultOTLPInsecure},
			},
			Health: HealthConfig{Enabled: DefaultHealthEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Fields where
// the zero value is meaningful (booleans, the slow-session threshold and
// the adaptive window) are left alone; Default seeds them instead.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)

	if cfg.Tracing.Vendor == "" {
		cfg.Tracing.Vendor = DefaultTracingVendor
	}

	if cfg.Privacy.Strategy == "" {
		cfg.Privacy.Strategy = DefaultPrivacyStrategy
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.MaxHeaderBytes == 0 {
		s.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.RateLimit.RequestsPerSecond == 0 {
		s.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if s.RateLimit.Burst == 0 {
		s.RateLimit.Burst = DefaultRateLimitBurst
	}
	if s.CORS.AllowedHeaders == nil {
		s.CORS.AllowedHeaders = append([]string(nil), DefaultCORSAllowedHeaders...)
	}
	if s.CORS.MaxAge == 0 {
		s.CORS.MaxAge = DefaultCORSMaxAge
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	// Logging
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}
	if t.Logging.BufferSize == 0 {
		t.Logging.BufferSize = DefaultLoggingBufferSize
	}

	// Metrics
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultPrometheusPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}

	// Trace export
	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultOTelSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultOTelSampleRatio
	}
	if t.Tracing.Exporter == "" {
		t.Tracing.Exporter = DefaultOTelExporter
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultOTelServiceName
	}
	if t.Tracing.OTLP.Timeout == 0 {
		t.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	// Health
	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultHealthLiveness
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultHealthReadiness
	}
	if t.Health.VersionPath == "" {
		t.Health.VersionPath = DefaultHealthVersion
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
