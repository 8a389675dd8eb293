package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/nadi-pro/browser/pkg/telemetry/logging"
)

// RecoveryMiddleware recovers from panics in HTTP handlers and answers 500
// with a JSON error. The panic and stack trace are logged; neither is
// exposed to the client.
//
// Example usage:
//
//	handler = RecoveryMiddleware(logger)(handler)
func RecoveryMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.ErrorContext(r.Context(), "panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					WriteError(w, r, http.StatusInternalServerError, ErrorTypeServerError,
						"An internal error occurred. Please try again later.")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
