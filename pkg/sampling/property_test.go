package sampling

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func genContext() *rapid.Generator[Context] {
	return rapid.Custom(func(t *rapid.T) Context {
		return Context{
			Route:          rapid.SampledFrom([]string{"", "/", "/checkout", "/admin/users", "/search"}).Draw(t, "route"),
			HasError:       rapid.Bool().Draw(t, "has_error"),
			IsSlowSession:  rapid.Bool().Draw(t, "slow"),
			DeviceType:     rapid.SampledFrom([]DeviceType{DeviceDesktop, DeviceMobile, DeviceTablet}).Draw(t, "device"),
			ConnectionType: rapid.SampledFrom([]string{"", "4g", "3g", "wifi"}).Draw(t, "connection"),
		}
	})
}

func genRules() *rapid.Generator[[]Rule] {
	return rapid.Custom(func(t *rapid.T) []Rule {
		n := rapid.IntRange(0, 5).Draw(t, "n_rules")
		rules := make([]Rule, n)
		for i := range rules {
			rules[i] = Rule{
				Name:     fmt.Sprintf("rule-%d", i),
				Rate:     rapid.Float64Range(-1, 2).Draw(t, "rate"),
				Priority: rapid.IntRange(-3, 3).Draw(t, "priority"),
				Conditions: Conditions{
					RoutePrefixes: rapid.SliceOfN(rapid.SampledFrom([]string{"/checkout", "/admin", "/"}), 0, 2).Draw(t, "prefixes"),
				},
			}
		}
		return rules
	})
}

func TestProperty_BoundaryRatesDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		one := rapid.Bool().Draw(t, "rate_one")
		rate := 0.0
		if one {
			rate = 1.0
		}
		rnd := &stubRandom{value: rapid.Float64Range(0, 0.999).Draw(t, "draw")}
		e, err := NewEngine(Options{GlobalRate: rate, Random: rnd})
		if err != nil {
			t.Fatal(err)
		}

		ctx := genContext().Draw(t, "ctx")
		ctx.HasError, ctx.IsSlowSession = false, false
		if got := e.Evaluate(ctx); got.Sampled != one {
			t.Fatalf("Evaluate() at rate %v = %+v", rate, got)
		}
		if rnd.calls != 0 {
			t.Fatalf("boundary rate drew %d random values", rnd.calls)
		}
	})
}

func TestProperty_RatesClamped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e, err := NewEngine(Options{
			GlobalRate: rapid.Float64Range(-10, 10).Draw(t, "global"),
			Rules:      genRules().Draw(t, "rules"),
			Adaptive:   rapid.Bool().Draw(t, "adaptive"),
		})
		if err != nil {
			t.Fatal(err)
		}
		for i := rapid.IntRange(0, 300).Draw(t, "events"); i > 0; i-- {
			e.RecordEvent(rapid.Bool().Draw(t, "err"))
		}

		d := e.Evaluate(genContext().Draw(t, "ctx"))
		if d.Rate < 0 || d.Rate > 1 {
			t.Fatalf("decision rate %v outside [0,1]", d.Rate)
		}
		if eff := e.EffectiveRate(); eff < e.GlobalRate() {
			t.Fatalf("EffectiveRate() %v below global %v", eff, e.GlobalRate())
		}
	})
}

func TestProperty_HigherPriorityWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rules := genRules().Draw(t, "rules")
		e, err := NewEngine(Options{Rules: rules})
		if err != nil {
			t.Fatal(err)
		}
		ctx := genContext().Draw(t, "ctx")
		ctx.HasError, ctx.IsSlowSession = false, false

		d := e.Evaluate(ctx)
		if d.Reason != ReasonRule {
			for _, r := range rules {
				if r.Matches(ctx) {
					t.Fatalf("rule %s matches but decision is %+v", r.Name, d)
				}
			}
			return
		}

		var chosen Rule
		for _, r := range e.Rules() {
			if r.Name == d.Rule {
				chosen = r
			}
		}
		for _, r := range rules {
			if r.Matches(ctx) && r.Priority > chosen.Priority {
				t.Fatalf("rule %s (priority %d) skipped for %s (priority %d)", r.Name, r.Priority, chosen.Name, chosen.Priority)
			}
		}
	})
}

func TestProperty_SessionMemoizedAndForcedMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e, err := NewEngine(Options{
			GlobalRate: rapid.Float64Range(0, 1).Draw(t, "global"),
			Rules:      genRules().Draw(t, "rules"),
		})
		if err != nil {
			t.Fatal(err)
		}

		first := e.ShouldSampleSession(genContext().Draw(t, "first"))
		if again := e.ShouldSampleSession(genContext().Draw(t, "second")); again != first {
			t.Fatalf("session decision changed: %+v then %+v", first, again)
		}

		e.ForceSampleSession()
		for i := rapid.IntRange(1, 10).Draw(t, "calls"); i > 0; i-- {
			if d := e.Evaluate(genContext().Draw(t, "ctx")); !d.Sampled {
				t.Fatalf("Evaluate() after force = %+v", d)
			}
			if d := e.ShouldSampleSession(genContext().Draw(t, "ctx")); !d.Sampled {
				t.Fatalf("ShouldSampleSession() after force = %+v", d)
			}
		}
	})
}
