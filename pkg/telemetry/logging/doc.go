// Package logging provides structured logging with PII redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON, text, and console formats
//   - PII redaction backed by the privacy engine
//   - Context-aware logging with request, session and trace IDs
//   - Optional async buffering for non-blocking writes
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:      "info",
//	    Format:     "json",
//	    RedactPII:  true,
//	    BufferSize: 10000,
//	})
//	defer logger.Shutdown()
//
//	logger.Info("sampling decision",
//	    "session_id", "s-123",
//	    "token", "abc123", // redacted by key
//	    "route", "/users/john@example.com", // redacted by pattern
//	)
//
// Packages that accept a *slog.Logger receive logger.Slog(); records
// logged through it are redacted the same way.
//
// # PII Redaction
//
// Redaction runs in the slog handler's ReplaceAttr hook, so it covers
// fields added with With as well as per-call arguments and the message.
// Values under a sensitive key (password, token, cookie, ...) are replaced
// with [REDACTED]. Other strings and error messages are masked with the
// privacy engine's patterns and strategy. Correlation IDs (request_id,
// session_id, trace_id, span_id) are never masked.
package logging
