// Package privacy detects and masks personally identifiable information
// before telemetry leaves the process.
//
// # Overview
//
// An Engine owns an ordered registry of named PII patterns and a masking
// strategy. It offers three sanitizers:
//
//   - MaskText replaces every pattern match in free text
//   - MaskObject walks maps and slices, fully redacting sensitive keys
//   - ScrubURL replaces sensitive query parameters and masks the path
//
// DetectPII reports what would be masked without changing anything.
//
// # Strategies
//
//	redact   john@example.com -> [REDACTED]
//	partial  john@example.com -> j**************m
//	hash     john@example.com -> [HASH:1f2e3d4c] (FNV-1a digest)
//
// Partial masking of a match with four characters or fewer falls back to
// redact. Field-based redaction in MaskObject always uses the placeholder
// regardless of strategy.
//
// The hash tag is the 32-bit FNV-1a digest of the match. It is stable
// across calls and processes, so equal values correlate, but it is not a
// cryptographic commitment and must not be treated as anonymization.
//
// # Usage
//
//	engine, err := privacy.NewEngine(privacy.Config{
//	    Enabled:            true,
//	    Strategy:           privacy.StrategyPartial,
//	    SensitiveURLParams: []string{"token"},
//	})
//	if err != nil {
//	    return err
//	}
//
//	msg := engine.MaskText("Contact john@example.com")
//	payload := engine.MaskObject(map[string]any{"password": "hunter2"})
//	page := engine.ScrubURL("https://shop.example.com/?token=abc&q=1")
//
// # Thread Safety
//
// Engine is not safe for concurrent use. Hosts that share one engine
// across goroutines must serialize access.
package privacy
