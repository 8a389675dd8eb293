// Package tracing provides OpenTelemetry tracing for the Nadi governor.
//
// # Overview
//
// The package owns the SDK tracer provider used for the governor's own
// spans (HTTP requests, masking operations, sampling evaluations) and the
// W3C propagator used to extract browser-originated trace context from
// incoming requests.
//
// # Trace Context Propagation
//
// Incoming requests carrying a traceparent header continue the browser's
// trace:
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//	tracestate: nadi=00f067aa0ba902b7
//
// HTTPMiddleware extracts the context and echoes X-Trace-ID and X-Span-ID
// response headers.
//
// # Sampling Strategies
//
//   - session: follow the browser session's sampling decision (default)
//   - always: sample all traces
//   - never: sample no traces
//   - ratio: sample a fraction of traces by trace ID
//
// The session sampler keeps backend spans for exactly the sessions the
// sampling engine keeps, so front-end and back-end traces line up.
//
// # Exporters
//
//   - otlp: OTLP over gRPC, connected lazily
//   - stdout: pretty-printed JSON, useful for local debugging
//
// # Usage
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing,
//	    tracing.WithSessionSource(gov),
//	)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "privacy.scrub")
//	defer span.End()
//	tracing.SetPrivacyAttributes(span, "scrub", true, []string{"email"}, 1)
//
// # Privacy
//
// Span attributes never carry matched PII. SetPrivacyAttributes records
// pattern names and counts only.
package tracing
