// Package middleware provides the HTTP middleware of the governance API.
//
// # Middleware Chain
//
// The server applies, outermost first:
//
//	Recovery -> Logging -> RequestID -> CORS -> RateLimit -> MaxBody -> otelhttp -> trace context -> Route -> mux
//
// Recovery sits outside Logging so panics are logged with a 500 status.
// RequestID runs before CORS and rate limiting so rejected requests still
// carry an ID.
//
// # Errors
//
// Every middleware that rejects a request writes an ErrorResponse:
//
//	{"error": {"message": "Too many requests", "type": "rate_limit_exceeded", "request_id": "..."}}
package middleware
