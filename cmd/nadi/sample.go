package main

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nadi-pro/browser/pkg/cli"
	"github.com/nadi-pro/browser/pkg/governor"
	"github.com/nadi-pro/browser/pkg/sampling"
)

var sampleFlags struct {
	route      string
	url        string
	device     string
	hasError   bool
	slow       bool
	loadTime   time.Duration
	connection string
	tags       map[string]string
	format     string
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Evaluate the sampling decision for a session context",
	Long: `Evaluate the configured sampling precedence against one session
context: error override, slow-session override, rules by priority, then the
global or adaptive rate.

Examples:
  nadi sample --route /checkout --device mobile
  nadi sample --url https://shop.example.com/cart --error
  nadi sample --load-time 4s --format json`,
	RunE: runSample,
}

var simulateFlags struct {
	sessions  int
	errorRate float64
	seed      uint64
	quiet     bool
	format    string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate many sessions and report the sampled share",
	Long: `Start the given number of sessions against the sampling flags of the
parent command and report how many were sampled and why. Sessions carry an
error with probability --error-rate. With --seed the run is reproducible.

Examples:
  nadi sample simulate --sessions 10000
  nadi sample simulate --route /checkout --error-rate 0.05 --seed 42`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.AddCommand(simulateCmd)

	pf := sampleCmd.PersistentFlags()
	pf.StringVar(&sampleFlags.route, "route", "", "route pattern, e.g. /products/:id")
	pf.StringVar(&sampleFlags.url, "url", "", "page URL")
	pf.StringVar(&sampleFlags.device, "device", "", "device type: desktop, mobile, tablet")
	pf.BoolVar(&sampleFlags.hasError, "error", false, "the session carries an error")
	pf.BoolVar(&sampleFlags.slow, "slow", false, "the session is slow")
	pf.DurationVar(&sampleFlags.loadTime, "load-time", 0, "page load time; marks the session slow above the threshold")
	pf.StringVar(&sampleFlags.connection, "connection", "", "effective connection type, e.g. 4g")
	pf.StringToStringVar(&sampleFlags.tags, "tag", nil, "session tag key=value (repeatable)")
	sampleCmd.Flags().StringVar(&sampleFlags.format, "format", "text", "output format: text, json, yaml")

	simulateCmd.Flags().IntVar(&simulateFlags.sessions, "sessions", 1000, "number of sessions to simulate")
	simulateCmd.Flags().Float64Var(&simulateFlags.errorRate, "error-rate", 0, "probability that a session carries an error")
	simulateCmd.Flags().Uint64Var(&simulateFlags.seed, "seed", 0, "random seed (0 for a random run)")
	simulateCmd.Flags().BoolVarP(&simulateFlags.quiet, "quiet", "q", false, "suppress progress output")
	simulateCmd.Flags().StringVar(&simulateFlags.format, "format", "text", "output format: text, json, yaml")
}

// sampleContext builds the sampling context from the sample flags.
func sampleContext(gov *governor.Governor) (sampling.Context, error) {
	ctx := sampling.Context{
		URL:            sampleFlags.url,
		Route:          sampleFlags.route,
		DeviceType:     sampling.DeviceType(strings.ToLower(sampleFlags.device)),
		HasError:       sampleFlags.hasError,
		IsSlowSession:  sampleFlags.slow,
		ConnectionType: sampleFlags.connection,
		Tags:           sampleFlags.tags,
	}
	if ctx.DeviceType != "" && !ctx.DeviceType.Valid() {
		return ctx, fmt.Errorf("unknown device type %q", sampleFlags.device)
	}
	if sampleFlags.loadTime < 0 {
		return ctx, fmt.Errorf("load time must not be negative")
	}
	if sampleFlags.loadTime > 0 && gov.IsSlow(sampleFlags.loadTime) {
		ctx.IsSlowSession = true
	}
	return ctx, nil
}

type sampleResult struct {
	sampling.Decision `yaml:",inline"`
	SessionID         string `json:"session_id" yaml:"session_id"`
}

func (r sampleResult) Text() string {
	verdict := "not sampled"
	if r.Sampled {
		verdict = "sampled"
	}
	s := fmt.Sprintf("Session %s: %s (reason: %s, rate: %g", r.SessionID, verdict, r.Reason, r.Rate)
	if r.Rule != "" {
		s += ", rule: " + r.Rule
	}
	return s + ")"
}

func runSample(cmd *cobra.Command, args []string) error {
	gov, err := newGovernor(cmd)
	if err != nil {
		return err
	}

	ctx, err := sampleContext(gov)
	if err != nil {
		return cli.NewCommandError("sample", err)
	}

	d := gov.ShouldSend(ctx)
	return printResult(cmd, sampleFlags.format, sampleResult{Decision: d, SessionID: gov.SessionID()})
}

type simulateResult struct {
	Sessions      int            `json:"sessions" yaml:"sessions"`
	Sampled       int            `json:"sampled" yaml:"sampled"`
	Ratio         float64        `json:"ratio" yaml:"ratio"`
	EffectiveRate float64        `json:"effective_rate" yaml:"effective_rate"`
	Reasons       map[string]int `json:"reasons" yaml:"reasons"`
}

func (r simulateResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sessions:       %d\n", r.Sessions)
	fmt.Fprintf(&b, "Sampled:        %d (%.2f%%)\n", r.Sampled, r.Ratio*100)
	fmt.Fprintf(&b, "Effective rate: %g\n", r.EffectiveRate)
	b.WriteString("Reasons:")

	reasons := make([]string, 0, len(r.Reasons))
	for reason := range r.Reasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(&b, "\n  %-14s %d", reason, r.Reasons[reason])
	}
	return b.String()
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simulateFlags.sessions <= 0 {
		return cli.NewCommandError("sample simulate", fmt.Errorf("--sessions must be positive"))
	}
	if simulateFlags.errorRate < 0 || simulateFlags.errorRate > 1 {
		return cli.NewCommandError("sample simulate", fmt.Errorf("--error-rate must be between 0 and 1"))
	}

	seed := simulateFlags.seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	gov, err := newGovernor(cmd, governor.WithRandom(rng))
	if err != nil {
		return err
	}

	base, err := sampleContext(gov)
	if err != nil {
		return cli.NewCommandError("sample simulate", err)
	}

	var progress cli.ProgressReporter
	if !simulateFlags.quiet {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "sessions")
		progress.Start(int64(simulateFlags.sessions))
	}

	ctx := commandContext(cmd)
	result := simulateResult{Reasons: map[string]int{}}
	for i := 0; i < simulateFlags.sessions; i++ {
		if err := ctx.Err(); err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return err
		}

		gov.StartSession()
		sc := base
		sc.HasError = base.HasError || rng.Float64() < simulateFlags.errorRate

		d := gov.ShouldSend(sc)
		result.Sessions++
		if d.Sampled {
			result.Sampled++
		}
		result.Reasons[string(d.Reason)]++

		if progress != nil && (i+1)%100 == 0 {
			progress.Update(int64(i + 1))
		}
	}
	if progress != nil {
		progress.Update(int64(result.Sessions))
		progress.Finish()
	}

	result.Ratio = float64(result.Sampled) / float64(result.Sessions)
	result.EffectiveRate = gov.Status().Sampling.EffectiveRate

	return printResult(cmd, simulateFlags.format, result)
}
