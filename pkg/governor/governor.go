package governor

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/privacy"
	"github.com/nadi-pro/browser/pkg/sampling"
	"github.com/nadi-pro/browser/pkg/telemetry/metrics"
	"github.com/nadi-pro/browser/pkg/tracecontext"
)

// Governor wires one trace context manager, one sampling engine and one
// privacy engine together for a single session. The leaves are not safe
// for concurrent use; every method of Governor holds its mutex while it
// touches them.
type Governor struct {
	mu sync.Mutex

	cfg       *config.Config
	trace     *tracecontext.Manager
	sampler   *sampling.Engine
	privacy   *privacy.Engine
	sessionID string

	metrics *metrics.Collector
	logger  *slog.Logger
	random  sampling.RandomSource
	entropy io.Reader
	newID   func() string
}

var _ sampling.DecisionSource = (*Governor)(nil)

// Option configures a Governor.
type Option func(*Governor)

// WithMetrics records sampling, privacy and propagation metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Governor) { g.metrics = c }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Governor) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithRandom overrides the sampling random source.
func WithRandom(r sampling.RandomSource) Option {
	return func(g *Governor) { g.random = r }
}

// WithEntropy overrides the trace identifier source.
func WithEntropy(r io.Reader) Option {
	return func(g *Governor) { g.entropy = r }
}

// WithSessionIDs overrides the session ID generator. Default: UUIDv4.
func WithSessionIDs(fn func() string) Option {
	return func(g *Governor) {
		if fn != nil {
			g.newID = fn
		}
	}
}

// New builds a Governor from cfg and starts its first session.
func New(cfg *config.Config, opts ...Option) (*Governor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("governor: configuration is required")
	}

	g := &Governor{
		cfg:    cfg,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "governor")

	topts, err := TraceOptions(cfg.Tracing)
	if err != nil {
		return nil, err
	}
	topts.Entropy = g.entropy
	g.trace = tracecontext.NewManager(topts)

	sopts := SamplingOptions(cfg.Sampling)
	sopts.Random = g.random
	if g.sampler, err = sampling.NewEngine(sopts); err != nil {
		return nil, fmt.Errorf("sampling engine: %w", err)
	}

	if g.privacy, err = newPrivacyEngine(cfg.Privacy, g.logger, g.metrics.RecordPatternFailure); err != nil {
		return nil, fmt.Errorf("privacy engine: %w", err)
	}

	g.sessionID = g.newID()
	g.recordRates()
	return g, nil
}

// Config returns the configuration currently in effect.
func (g *Governor) Config() *config.Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// StartSession begins a new session: a fresh session ID, no memoized
// sampling decision and new trace identifiers. Adaptive counters carry
// over; they are windowed by the scheduler instead.
func (g *Governor) StartSession() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sessionID = g.newID()
	g.sampler.ResetSession()
	g.trace.Reset()
	g.trace.SetSampled(false)

	g.logger.Debug("session started", "session_id", g.sessionID)
	return g.sessionID
}

// SessionID returns the current session ID.
func (g *Governor) SessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessionID
}

// ShouldSend returns the session decision for ctx, evaluating it on the
// first call of a session. Every call counts one event for adaptive
// sampling. The trace context's sampled flag follows the decision.
func (g *Governor) ShouldSend(ctx sampling.Context) sampling.Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	first := g.sampler.State() == sampling.StateUnevaluated
	d := g.sampler.ShouldSampleSession(ctx)
	g.sampler.RecordEvent(ctx.HasError)
	g.trace.SetSampled(d.Sampled)

	g.metrics.RecordSamplingEvent(ctx.HasError)
	if first {
		g.metrics.RecordSamplingDecision(string(d.Reason), d.Sampled)
		g.logger.Debug("session sampling decided",
			"session_id", g.sessionID,
			"sampled", d.Sampled,
			"reason", d.Reason,
			"rule", d.Rule,
			"rate", d.Rate,
		)
	}
	g.recordRates()
	return d
}

// Evaluate returns a fresh decision for ctx without memoizing it or
// counting an event.
func (g *Governor) Evaluate(ctx sampling.Context) sampling.Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	d := g.sampler.Evaluate(ctx)
	g.metrics.RecordSamplingDecision(string(d.Reason), d.Sampled)
	return d
}

// Decision returns the memoized session decision. It lets the Governor
// act as a sampling.DecisionSource for the span sampler.
func (g *Governor) Decision() (sampling.Decision, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sampler.Decision()
}

// ForceSample forces the session to be sampled until the next session.
func (g *Governor) ForceSample() sampling.Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sampler.ForceSampleSession()
	g.trace.SetSampled(true)
	g.metrics.RecordForcedSample()
	g.logger.Info("session sampling forced", "session_id", g.sessionID)

	d, _ := g.sampler.Decision()
	return d
}

// RecordEvent counts one event for adaptive sampling without consulting
// the session decision.
func (g *Governor) RecordEvent(hasError bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sampler.RecordEvent(hasError)
	g.metrics.RecordSamplingEvent(hasError)
	g.recordRates()
}

// ResetAdaptive starts a new adaptive observation window.
func (g *Governor) ResetAdaptive() {
	g.mu.Lock()
	defer g.mu.Unlock()

	total, errs := g.sampler.AdaptiveStats()
	g.sampler.ResetAdaptive()
	g.metrics.RecordAdaptiveReset()
	g.recordRates()
	g.logger.Debug("adaptive window reset", "events", total, "errors", errs)
}

// IsSlow reports whether loadTime exceeds the configured slow-session
// threshold.
func (g *Governor) IsSlow(loadTime time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return sampling.SlowSession(loadTime, SlowThreshold(g.cfg.Sampling))
}

// recordRates publishes the configured and effective rates. Callers hold
// the mutex.
func (g *Governor) recordRates() {
	g.metrics.UpdateSamplingRates(g.sampler.GlobalRate(), g.sampler.EffectiveRate())
}

// Sanitize returns a masked copy of payload.
func (g *Governor) Sanitize(payload any) any {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	out := g.privacy.MaskObject(payload)
	g.metrics.RecordMask("object", !reflect.DeepEqual(payload, out), time.Since(start))
	return out
}

// SanitizeURL scrubs sensitive query parameters and PII from rawURL.
func (g *Governor) SanitizeURL(rawURL string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	out := g.privacy.ScrubURL(rawURL)
	g.metrics.RecordMask("url", out != rawURL, time.Since(start))
	return out
}

// SanitizeText masks PII in text.
func (g *Governor) SanitizeText(text string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	out := g.privacy.MaskText(text)
	g.metrics.RecordMask("text", out != text, time.Since(start))
	return out
}

// Detect reports the PII found in text.
func (g *Governor) Detect(text string) privacy.Detection {
	g.mu.Lock()
	defer g.mu.Unlock()

	d := g.privacy.DetectPII(text)
	g.metrics.RecordDetection(d.Patterns, d.Count)
	return d
}

// TraceHeaders returns the trace headers for a request to rawURL. The map
// is empty when rawURL is not a propagation target.
func (g *Governor) TraceHeaders(rawURL string) map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()

	headers := g.trace.GetHeaders(rawURL)
	propagated := len(headers) > 0
	g.metrics.RecordPropagation(propagated)
	if propagated {
		g.metrics.RecordTraceHeader()
	}
	return headers
}

// CurrentTrace returns the current trace context.
func (g *Governor) CurrentTrace() tracecontext.Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.trace.Current()
}

// AdoptServerTrace continues a trace issued by a backend, typically from a
// Server-Timing or meta tag. Invalid values are ignored.
func (g *Governor) AdoptServerTrace(traceparent, tracestate string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	ok := g.trace.AdoptHeader(traceparent, tracestate)
	g.metrics.RecordAdoption(ok)
	if !ok {
		g.logger.Debug("ignored invalid server trace context")
	}
	return ok
}
