// Package sampling decides whether a session's telemetry is kept.
//
// # Precedence
//
// Evaluate applies, in strict order:
//
//  1. errors: with AlwaysSampleErrors, a context with HasError is sampled at 1.0
//  2. slow sessions: with AlwaysSampleSlowSessions, IsSlowSession is sampled at 1.0
//  3. rules: the first rule, by descending priority, whose conditions match
//  4. global: the adaptive rate when enabled, otherwise the configured rate
//
// Rules with equal priority keep their insertion order.
//
// # Session State
//
//	Unevaluated --ShouldSampleSession--> Decided --ForceSampleSession--> Forced
//	     ^                                                                  |
//	     +---------------------------- ResetSession ------------------------+
//
// ShouldSampleSession memoizes the first decision so that every event of a
// session shares one verdict. Forced is terminal until ResetSession: once
// forced, neither ShouldSampleSession nor Evaluate can return an unsampled
// decision.
//
// # Adaptive Sampling
//
// RecordEvent feeds (total, errors) counters. With fewer than 100 events the
// configured global rate applies. From 100 events on, the observed error
// rate selects a band:
//
//	error rate > 5%    -> 1.0
//	error rate > 1%    -> 0.5
//	error rate > 0.1%  -> 0.25
//	otherwise          -> 0.1
//
// The result is never lower than the configured global rate.
//
// # Rates
//
// Rates are clamped to [0, 1]. A rate of 1 samples and a rate of 0 drops
// without drawing a random number, so boundary behavior is deterministic.
//
// # Concurrency
//
// An Engine is not safe for concurrent use.
package sampling
