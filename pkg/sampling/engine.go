package sampling

import (
	"fmt"
	mrand "math/rand/v2"
)

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

type defaultRandom struct{}

func (defaultRandom) Float64() float64 { return mrand.Float64() }

// Options configures an Engine.
type Options struct {
	// GlobalRate is the fallback sampling rate. Default: 0 (clamped).
	GlobalRate float64

	// Rules are evaluated by descending priority.
	Rules []Rule

	// AlwaysSampleErrors samples every context with HasError.
	AlwaysSampleErrors bool

	// AlwaysSampleSlowSessions samples every context with IsSlowSession.
	AlwaysSampleSlowSessions bool

	// Adaptive enables error-rate driven adjustment of the global rate.
	Adaptive bool

	// Random overrides the random source. Default: math/rand/v2.
	Random RandomSource
}

// Engine makes sampling decisions for one session.
type Engine struct {
	globalRate         float64
	rules              []Rule
	alwaysSampleErrors bool
	alwaysSampleSlow   bool
	adaptive           bool
	random             RandomSource

	state   SessionState
	session Decision

	totalEvents int
	errorEvents int
}

// NewEngine creates an Engine. It fails if a rule has no name or two rules
// share a name.
func NewEngine(opts Options) (*Engine, error) {
	e := &Engine{
		globalRate:         ClampRate(opts.GlobalRate),
		alwaysSampleErrors: opts.AlwaysSampleErrors,
		alwaysSampleSlow:   opts.AlwaysSampleSlowSessions,
		adaptive:           opts.Adaptive,
		random:             opts.Random,
	}
	if e.random == nil {
		e.random = defaultRandom{}
	}
	if err := e.SetRules(opts.Rules); err != nil {
		return nil, err
	}
	return e, nil
}

// Evaluate returns a fresh decision for ctx without touching the session
// cache. A forced session always evaluates to its forced decision.
func (e *Engine) Evaluate(ctx Context) Decision {
	if e.state == StateForced {
		return e.session
	}

	if e.alwaysSampleErrors && ctx.HasError {
		return Decision{Sampled: true, Rate: 1, Reason: ReasonError}
	}
	if e.alwaysSampleSlow && ctx.IsSlowSession {
		return Decision{Sampled: true, Rate: 1, Reason: ReasonSlowSession}
	}

	for _, r := range e.rules {
		if r.Matches(ctx) {
			return Decision{
				Sampled: e.sampleAt(r.Rate),
				Rule:    r.Name,
				Rate:    r.Rate,
				Reason:  ReasonRule,
			}
		}
	}

	rate := e.EffectiveRate()
	return Decision{Sampled: e.sampleAt(rate), Rate: rate, Reason: ReasonGlobal}
}

// sampleAt draws against rate. Boundary rates never consume randomness.
func (e *Engine) sampleAt(rate float64) bool {
	if rate >= 1 {
		return true
	}
	if rate <= 0 {
		return false
	}
	return e.random.Float64() < rate
}

// ShouldSampleSession returns the session decision, evaluating ctx only
// the first time.
func (e *Engine) ShouldSampleSession(ctx Context) Decision {
	if e.state != StateUnevaluated {
		return e.session
	}
	e.session = e.Evaluate(ctx)
	e.state = StateDecided
	return e.session
}

// Decision returns the memoized session decision, if one exists.
func (e *Engine) Decision() (Decision, bool) {
	if e.state == StateUnevaluated {
		return Decision{}, false
	}
	return e.session, true
}

// State returns the session state.
func (e *Engine) State() SessionState {
	return e.state
}

// ForceSampleSession marks the session as sampled. The decision cannot be
// downgraded until ResetSession.
func (e *Engine) ForceSampleSession() {
	e.session = Decision{Sampled: true, Rate: 1, Reason: ReasonForced}
	e.state = StateForced
}

// ResetSession discards the memoized decision, including a forced one.
func (e *Engine) ResetSession() {
	e.session = Decision{}
	e.state = StateUnevaluated
}

// GlobalRate returns the configured global rate.
func (e *Engine) GlobalRate() float64 {
	return e.globalRate
}

// SetGlobalRate sets the global rate, clamped to [0, 1].
func (e *Engine) SetGlobalRate(rate float64) {
	e.globalRate = ClampRate(rate)
}

// SetAdaptive enables or disables adaptive sampling.
func (e *Engine) SetAdaptive(enabled bool) {
	e.adaptive = enabled
}

// SetAlwaysSampleErrors toggles the error override.
func (e *Engine) SetAlwaysSampleErrors(enabled bool) {
	e.alwaysSampleErrors = enabled
}

// SetAlwaysSampleSlowSessions toggles the slow-session override.
func (e *Engine) SetAlwaysSampleSlowSessions(enabled bool) {
	e.alwaysSampleSlow = enabled
}

// Rules returns the rules in evaluation order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// SetRules replaces all rules. On error the existing rules are kept.
func (e *Engine) SetRules(rules []Rule) error {
	next := make([]Rule, 0, len(rules))
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return ErrEmptyRuleName
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, r.Name)
		}
		seen[r.Name] = struct{}{}
		r.Rate = ClampRate(r.Rate)
		next = append(next, r)
	}
	sortRules(next)
	e.rules = next
	return nil
}

// AddRule inserts a rule after existing rules of the same priority.
func (e *Engine) AddRule(r Rule) error {
	if r.Name == "" {
		return ErrEmptyRuleName
	}
	for _, existing := range e.rules {
		if existing.Name == r.Name {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, r.Name)
		}
	}
	r.Rate = ClampRate(r.Rate)
	e.rules = append(e.rules, r)
	sortRules(e.rules)
	return nil
}

// RemoveRule deletes the named rule and reports whether it existed.
func (e *Engine) RemoveRule(name string) bool {
	for i, r := range e.rules {
		if r.Name == name {
			e.rules = append(e.rules[:i], e.rules[i+1:]...)
			return true
		}
	}
	return false
}
