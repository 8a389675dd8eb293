// Package governor wires the trace context manager, the sampling engine and
// the privacy engine into one session-scoped facade.
//
// The three engines are plain values without locks. A Governor owns one of
// each and serialises every call through a mutex, so HTTP handlers, the
// config watcher and the adaptive window scheduler can share it.
//
// # Lifecycle
//
//	gov, err := governor.New(cfg, governor.WithMetrics(collector), governor.WithLogger(logger))
//	sessionID := gov.StartSession()
//
//	d := gov.ShouldSend(sampling.Context{Route: "/checkout", HasError: true})
//	if d.Sampled {
//	    payload = gov.Sanitize(payload)
//	}
//
// # Reload
//
// Apply pushes a reloaded configuration into the engines through their
// setters. The session decision, adaptive counters and trace identifiers
// survive a reload.
//
// # Adaptive windows
//
// Scheduler resets the adaptive counters on the cron expression in
// sampling.adaptive.window_schedule.
package governor
