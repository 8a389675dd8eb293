// Package telemetry groups the observability layers of the Nadi governor.
//
// # Components
//
//   - logging: slog-based structured logging with PII redaction
//   - metrics: Prometheus collectors for sampling, privacy and trace propagation
//   - tracing: OpenTelemetry spans exported over OTLP or to stdout
//   - health: liveness, readiness and version endpoints
//
// Each sub-package is configured from its section of config.TelemetryConfig
// and is constructed explicitly by the serve command. None keeps global
// state apart from the OpenTelemetry global provider, which tracing.New
// installs unless told otherwise.
//
// # Privacy
//
// Logs are redacted with the same pattern registry the privacy engine uses.
// Metrics labels and span attributes carry pattern names and counts, never
// matched values.
package telemetry
