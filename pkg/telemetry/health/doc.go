// Package health provides liveness, readiness and version endpoints for
// the Nadi governor.
//
// # Endpoints
//
//   - /health: liveness, answers 200 while the process runs
//   - /ready: readiness, runs every registered check and answers 503 if any fails
//   - /version: build information
//
// Paths come from config.HealthConfig.
//
// # Usage
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("privacy", gov.PrivacyCheck)
//	health.Mount(mux, checker, cfg.Telemetry.Health, health.NewVersionInfo(version, commit, date))
//
// # Checks
//
// Checks run concurrently, each bounded by the check timeout. A check that
// panics or times out is reported as unhealthy rather than failing the
// probe.
package health
