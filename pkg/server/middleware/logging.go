package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nadi-pro/browser/pkg/telemetry/logging"
	"github.com/nadi-pro/browser/pkg/telemetry/metrics"
)

// UnmatchedRoute labels requests no route matched.
const UnmatchedRoute = "unmatched"

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// LoggingMiddleware logs each request and records its duration. The route
// label is the ServeMux pattern reported by RouteMiddleware, so metrics
// stay bounded whatever paths clients send.
//
// Log format (JSON):
//
//	{
//	  "time": "2026-10-17T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "POST",
//	  "route": "POST /v1/scrub",
//	  "status": 200,
//	  "latency_ms": 2,
//	  "request_id": "4f0c2b1e-..."
//	}
func LoggingMiddleware(logger *logging.Logger, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			logger.DebugContext(r.Context(), "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			info := &routeInfo{}
			next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), routeKey{}, info)))

			latency := time.Since(start)
			route := info.pattern
			if route == "" {
				route = UnmatchedRoute
			}
			collector.RecordRequest(route, r.Method, rw.statusCode, latency)

			level := slog.LevelInfo
			if rw.statusCode >= 500 {
				level = slog.LevelError
			} else if rw.statusCode >= 400 {
				level = slog.LevelWarn
			}

			logger.Slog().Log(r.Context(), level, "request completed",
				"method", r.Method,
				"route", route,
				"status", rw.statusCode,
				"latency_ms", latency.Milliseconds(),
				"request_id", GetRequestID(r.Context()),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

type routeKey struct{}

type routeInfo struct {
	pattern string
}

// RouteMiddleware wraps a ServeMux and reports the pattern it matched to
// LoggingMiddleware. It must sit directly around the mux.
func RouteMiddleware(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if info, ok := r.Context().Value(routeKey{}).(*routeInfo); ok {
			info.pattern = r.Pattern
		}
	})
}
