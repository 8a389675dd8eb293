package middleware

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/telemetry/metrics"
)

// RateLimitMiddleware throttles requests with a server-wide token bucket.
// Rejected requests get 429 with a Retry-After header. A disabled config
// returns next unchanged.
//
// Example usage:
//
//	handler = RateLimitMiddleware(cfg.Server.RateLimit, collector)(handler)
func RateLimitMiddleware(cfg config.RateLimitConfig, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := limiter.Reserve()
			if !res.OK() {
				reject(w, r, collector, 1)
				return
			}
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				reject(w, r, collector, int(math.Ceil(delay.Seconds())))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, collector *metrics.Collector, retryAfter int) {
	if retryAfter < 1 {
		retryAfter = 1
	}
	collector.RecordRateLimited(r.URL.Path)
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	WriteError(w, r, http.StatusTooManyRequests, ErrorTypeRateLimited, "Too many requests")
}
