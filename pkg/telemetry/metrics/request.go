package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nadi-pro/browser/pkg/config"
)

// RequestMetrics tracks metrics for the HTTP API.
//
// Metrics:
//   - nadi_governor_http_requests_total: Request count by route, method, code
//   - nadi_governor_http_request_duration_seconds: Request duration histogram
//   - nadi_governor_http_rate_limited_total: Requests rejected by the rate limiter
type RequestMetrics struct {
	// Total request count
	requestsTotal *prometheus.CounterVec

	// Request duration histogram
	requestDuration *prometheus.HistogramVec

	// Rejected by the rate limiter
	rateLimited *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of API requests processed",
			},
			[]string{"route", "method", "code"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of API requests in seconds",
				Buckets:   DefaultRequestDurationBuckets,
			},
			[]string{"route", "method"},
		),

		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_rate_limited_total",
				Help:      "Total number of API requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.rateLimited,
	)

	return rm
}

// RecordRequest records metrics for a completed request.
func (rm *RequestMetrics) RecordRequest(route, method string, code int, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	rm.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordRateLimited records a rejected request.
func (rm *RequestMetrics) RecordRateLimited(route string) {
	rm.rateLimited.WithLabelValues(route).Inc()
}
