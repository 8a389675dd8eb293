package health

import (
	"encoding/json"
	"net/http"
	"runtime"

	"golang.org/x/time/rate"

	"github.com/nadi-pro/browser/pkg/config"
)

// VersionInfo contains build and version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// NewVersionInfo fills GoVersion from the running binary.
func NewVersionInfo(version, commit, buildTime string) VersionInfo {
	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
}

// LivenessHandler returns an HTTP handler for the liveness probe endpoint.
//
// Example response:
//
//	{"status": "ok", "timestamp": "2026-10-17T10:30:00Z"}
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowProbeMethod(w, r) {
			return
		}
		writeJSON(w, r, http.StatusOK, c.CheckLiveness(r.Context()))
	}
}

// ReadinessHandler returns an HTTP handler for the readiness probe
// endpoint. It answers 503 when any check fails.
//
// Example response (degraded):
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "config": {"status": "ok"},
//	        "privacy": {"status": "unhealthy", "message": "no patterns registered"}
//	    },
//	    "timestamp": "2026-10-17T10:30:00Z"
//	}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowProbeMethod(w, r) {
			return
		}
		status := c.CheckReadiness(r.Context())
		code := http.StatusOK
		if !status.Ready() {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
	}
}

// VersionHandler returns an HTTP handler for the version endpoint.
func VersionHandler(info VersionInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowProbeMethod(w, r) {
			return
		}
		writeJSON(w, r, http.StatusOK, info)
	}
}

// Mount registers the probe endpoints on mux at the configured paths. It
// does nothing when health endpoints are disabled.
func Mount(mux *http.ServeMux, c *Checker, cfg config.HealthConfig, info VersionInfo) {
	if !cfg.Enabled {
		return
	}
	mux.Handle(cfg.LivenessPath, c.LivenessHandler())
	mux.Handle(cfg.ReadinessPath, c.ReadinessHandler())
	mux.Handle(cfg.VersionPath, VersionHandler(info))
}

// RateLimitedHandler wraps a handler with a token bucket allowing
// requestsPerSecond with an equal burst. Excess requests get 429.
//
// Usage:
//
//	mux.Handle("/ready", health.RateLimitedHandler(checker.ReadinessHandler(), 10))
func RateLimitedHandler(handler http.Handler, requestsPerSecond int) http.Handler {
	if requestsPerSecond <= 0 {
		return handler
	}
	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		handler.ServeHTTP(w, r)
	})
}

func allowProbeMethod(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(body)
	}
}
