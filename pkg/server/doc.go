// Package server provides the HTTP governance API.
//
// Collectors that cannot link the Go packages directly consult the
// governor over HTTP: they scrub payloads before sending them, ask whether
// a session is sampled, and fetch the trace headers for an outgoing
// request.
//
// # Basic Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("nadi.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gov, err := governor.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv, err := server.New(cfg, gov,
//	    server.WithMetrics(collector),
//	    server.WithHealth(checker),
//	    server.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Blocks until ctx is cancelled, then shuts down gracefully.
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routes
//
//   - POST /v1/scrub - Mask text, a URL or a JSON object
//   - POST /v1/detect - Report the PII found in text
//   - POST /v1/sample - Evaluate a sampling context; ?session=true memoizes
//   - POST /v1/sample/force - Force the current session to be sampled
//   - POST /v1/session - Start a new session
//   - GET /v1/trace/headers?url= - Trace headers for an outgoing request
//   - POST /v1/trace/parse - Parse (and optionally adopt) a traceparent
//   - GET /v1/status - Governor snapshot
//   - GET /metrics - Prometheus metrics, when enabled
//   - GET /health, /ready, /version - Probes, when enabled
//
// Errors are JSON:
//
//	{"error": {"message": "invalid traceparent header", "type": "unprocessable_entity", "request_id": "..."}}
//
// # Middleware Chain
//
// Requests pass through, outermost first: recovery, logging, request ID,
// CORS, rate limiting, body limit, otelhttp (when span export is enabled)
// and trace context extraction. See package middleware.
package server
