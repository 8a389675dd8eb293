package sampling

import (
	"errors"
	"testing"
)

// stubRandom returns a fixed value and counts draws.
type stubRandom struct {
	value float64
	calls int
}

func (s *stubRandom) Float64() float64 {
	s.calls++
	return s.value
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(opts)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestEngine_EvaluatePrecedence(t *testing.T) {
	rules := []Rule{
		{Name: "checkout", Rate: 0, Priority: 10, Conditions: Conditions{RoutePrefixes: []string{"/checkout"}}},
	}

	tests := []struct {
		name       string
		opts       Options
		ctx        Context
		wantReason Reason
		wantRule   string
		wantSample bool
	}{
		{
			name:       "error beats slow session and rules",
			opts:       Options{AlwaysSampleErrors: true, AlwaysSampleSlowSessions: true, Rules: rules},
			ctx:        Context{Route: "/checkout", HasError: true, IsSlowSession: true},
			wantReason: ReasonError,
			wantSample: true,
		},
		{
			name:       "slow session beats rules",
			opts:       Options{AlwaysSampleSlowSessions: true, Rules: rules},
			ctx:        Context{Route: "/checkout", IsSlowSession: true},
			wantReason: ReasonSlowSession,
			wantSample: true,
		},
		{
			name:       "error ignored when override disabled",
			opts:       Options{Rules: rules},
			ctx:        Context{Route: "/checkout", HasError: true},
			wantReason: ReasonRule,
			wantRule:   "checkout",
			wantSample: false,
		},
		{
			name:       "rule applies",
			opts:       Options{GlobalRate: 1, Rules: rules},
			ctx:        Context{Route: "/checkout/payment"},
			wantReason: ReasonRule,
			wantRule:   "checkout",
			wantSample: false,
		},
		{
			name:       "falls through to global",
			opts:       Options{GlobalRate: 1, Rules: rules},
			ctx:        Context{Route: "/home"},
			wantReason: ReasonGlobal,
			wantSample: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, tt.opts)
			got := e.Evaluate(tt.ctx)

			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if got.Rule != tt.wantRule {
				t.Errorf("Rule = %q, want %q", got.Rule, tt.wantRule)
			}
			if got.Sampled != tt.wantSample {
				t.Errorf("Sampled = %v, want %v", got.Sampled, tt.wantSample)
			}
		})
	}
}

func TestEngine_BoundaryRatesConsumeNoRandomness(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want bool
	}{
		{name: "rate one", rate: 1, want: true},
		{name: "rate above one", rate: 7, want: true},
		{name: "rate zero", rate: 0, want: false},
		{name: "negative rate", rate: -0.5, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rnd := &stubRandom{value: 0.5}
			e := newTestEngine(t, Options{GlobalRate: tt.rate, Random: rnd})

			got := e.Evaluate(Context{})
			if got.Sampled != tt.want {
				t.Errorf("Sampled = %v, want %v", got.Sampled, tt.want)
			}
			if rnd.calls != 0 {
				t.Errorf("random source called %d times, want 0", rnd.calls)
			}
		})
	}
}

func TestEngine_FractionalRateDraws(t *testing.T) {
	tests := []struct {
		name  string
		draw  float64
		rate  float64
		wantS bool
	}{
		{name: "draw below rate", draw: 0.29, rate: 0.3, wantS: true},
		{name: "draw equal to rate", draw: 0.3, rate: 0.3, wantS: false},
		{name: "draw above rate", draw: 0.9, rate: 0.3, wantS: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rnd := &stubRandom{value: tt.draw}
			e := newTestEngine(t, Options{GlobalRate: tt.rate, Random: rnd})

			got := e.Evaluate(Context{})
			if got.Sampled != tt.wantS {
				t.Errorf("Sampled = %v, want %v", got.Sampled, tt.wantS)
			}
			if got.Rate != tt.rate {
				t.Errorf("Rate = %v, want %v", got.Rate, tt.rate)
			}
			if rnd.calls != 1 {
				t.Errorf("random source called %d times, want 1", rnd.calls)
			}
		})
	}
}

func TestEngine_RulePriority(t *testing.T) {
	low := Rule{Name: "low", Rate: 0, Priority: 1}
	high := Rule{Name: "high", Rate: 1, Priority: 5}

	for _, order := range [][]Rule{{low, high}, {high, low}} {
		e := newTestEngine(t, Options{Rules: order})
		got := e.Evaluate(Context{})
		if got.Rule != "high" || !got.Sampled {
			t.Errorf("Evaluate() = %+v, want rule high sampled (order %s,%s)", got, order[0].Name, order[1].Name)
		}
	}
}

func TestEngine_RuleTiesKeepInsertionOrder(t *testing.T) {
	e := newTestEngine(t, Options{Rules: []Rule{
		{Name: "first", Rate: 1, Priority: 3},
		{Name: "second", Rate: 0, Priority: 3},
	}})
	if err := e.AddRule(Rule{Name: "third", Rate: 0, Priority: 3}); err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}

	names := []string{}
	for _, r := range e.Rules() {
		names = append(names, r.Name)
	}
	want := []string{"first", "second", "third"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Rules() order = %v, want %v", names, want)
		}
	}

	if got := e.Evaluate(Context{}); got.Rule != "first" {
		t.Errorf("Evaluate().Rule = %q, want first", got.Rule)
	}
}

func TestEngine_RuleManagement(t *testing.T) {
	e := newTestEngine(t, Options{})

	if err := e.AddRule(Rule{Rate: 1}); !errors.Is(err, ErrEmptyRuleName) {
		t.Errorf("AddRule(no name) error = %v, want ErrEmptyRuleName", err)
	}
	if err := e.AddRule(Rule{Name: "a", Rate: 3}); err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}
	if err := e.AddRule(Rule{Name: "a"}); !errors.Is(err, ErrDuplicateRule) {
		t.Errorf("AddRule(duplicate) error = %v, want ErrDuplicateRule", err)
	}
	if got := e.Rules()[0].Rate; got != 1 {
		t.Errorf("rule rate = %v, want clamped 1", got)
	}
	if !e.RemoveRule("a") {
		t.Error("RemoveRule(a) = false, want true")
	}
	if e.RemoveRule("a") {
		t.Error("RemoveRule(a) second call = true, want false")
	}

	if _, err := NewEngine(Options{Rules: []Rule{{Name: "x"}, {Name: "x"}}}); !errors.Is(err, ErrDuplicateRule) {
		t.Errorf("NewEngine(duplicate rules) error = %v, want ErrDuplicateRule", err)
	}
}

func TestEngine_SetRulesKeepsOldOnError(t *testing.T) {
	e := newTestEngine(t, Options{Rules: []Rule{{Name: "keep", Rate: 1}}})

	if err := e.SetRules([]Rule{{Name: ""}}); err == nil {
		t.Fatal("SetRules() error = nil, want error")
	}
	if rules := e.Rules(); len(rules) != 1 || rules[0].Name != "keep" {
		t.Errorf("Rules() = %+v, want original rule kept", rules)
	}
}

func TestEngine_SessionMemoization(t *testing.T) {
	rnd := &stubRandom{value: 0.1}
	e := newTestEngine(t, Options{GlobalRate: 0.5, Random: rnd})

	if _, ok := e.Decision(); ok {
		t.Fatal("Decision() ok = true before evaluation")
	}

	first := e.ShouldSampleSession(Context{})
	rnd.value = 0.99
	second := e.ShouldSampleSession(Context{HasError: true})

	if first != second {
		t.Errorf("ShouldSampleSession() changed: %+v then %+v", first, second)
	}
	if rnd.calls != 1 {
		t.Errorf("random source called %d times, want 1", rnd.calls)
	}
	if got, ok := e.Decision(); !ok || got != first {
		t.Errorf("Decision() = %+v, %v; want %+v, true", got, ok, first)
	}
	if e.State() != StateDecided {
		t.Errorf("State() = %v, want decided", e.State())
	}
}

func TestEngine_ForceSampleSession(t *testing.T) {
	e := newTestEngine(t, Options{GlobalRate: 0})

	if got := e.ShouldSampleSession(Context{}); got.Sampled {
		t.Fatalf("ShouldSampleSession() = %+v, want unsampled", got)
	}

	e.ForceSampleSession()

	if got := e.ShouldSampleSession(Context{}); !got.Sampled || got.Reason != ReasonForced {
		t.Errorf("ShouldSampleSession() after force = %+v", got)
	}
	if got := e.Evaluate(Context{}); !got.Sampled || got.Reason != ReasonForced {
		t.Errorf("Evaluate() after force = %+v", got)
	}
	if e.State() != StateForced {
		t.Errorf("State() = %v, want forced", e.State())
	}

	e.ResetSession()
	if e.State() != StateUnevaluated {
		t.Errorf("State() after reset = %v, want unevaluated", e.State())
	}
	if got := e.ShouldSampleSession(Context{}); got.Sampled {
		t.Errorf("ShouldSampleSession() after reset = %+v, want unsampled", got)
	}
}

func TestEngine_Setters(t *testing.T) {
	e := newTestEngine(t, Options{})

	e.SetGlobalRate(2)
	if e.GlobalRate() != 1 {
		t.Errorf("GlobalRate() = %v, want 1", e.GlobalRate())
	}
	e.SetGlobalRate(-1)
	if e.GlobalRate() != 0 {
		t.Errorf("GlobalRate() = %v, want 0", e.GlobalRate())
	}

	e.SetAlwaysSampleErrors(true)
	if got := e.Evaluate(Context{HasError: true}); got.Reason != ReasonError {
		t.Errorf("Reason = %q, want error", got.Reason)
	}
	e.SetAlwaysSampleSlowSessions(true)
	if got := e.Evaluate(Context{IsSlowSession: true}); got.Reason != ReasonSlowSession {
		t.Errorf("Reason = %q, want slow_session", got.Reason)
	}
}

func TestSessionState_String(t *testing.T) {
	tests := map[SessionState]string{
		StateUnevaluated: "unevaluated",
		StateDecided:     "decided",
		StateForced:      "forced",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
