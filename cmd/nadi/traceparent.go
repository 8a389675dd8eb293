package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadi-pro/browser/pkg/cli"
	"github.com/nadi-pro/browser/pkg/tracecontext"
)

var traceparentCmd = &cobra.Command{
	Use:     "traceparent",
	Aliases: []string{"trace"},
	Short:   "Generate, parse and inspect W3C trace context headers",
}

var traceNewFlags struct {
	sampled bool
	format  string
}

var traceNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Generate a new traceparent",
	Long: `Generate a traceparent with fresh trace and span identifiers.

Examples:
  nadi traceparent new
  nadi traceparent new --sampled --format json`,
	Args: cobra.NoArgs,
	RunE: runTraceNew,
}

var traceParseFlags struct {
	state  string
	format string
}

var traceParseCmd = &cobra.Command{
	Use:   "parse <traceparent>",
	Short: "Parse and validate a traceparent",
	Long: `Parse a traceparent value and print its fields. Exits non-zero when the
value is not a valid version 00 traceparent.

Examples:
  nadi traceparent parse 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
  nadi traceparent parse "$TP" --state "nadi=abc,rojo=00f067aa0ba902b7"`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceParse,
}

var traceHeadersFlags struct {
	format string
}

var traceHeadersCmd = &cobra.Command{
	Use:   "headers <url>",
	Short: "Show the trace headers attached to a request for a URL",
	Long: `Show the headers the propagation targets would attach to a request for
the URL. Nothing is attached to URLs outside the configured targets.

Examples:
  nadi traceparent headers https://api.example.com/v1/orders
  nadi traceparent headers /relative/path --config nadi.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceHeaders,
}

func init() {
	rootCmd.AddCommand(traceparentCmd)
	traceparentCmd.AddCommand(traceNewCmd, traceParseCmd, traceHeadersCmd)

	traceNewCmd.Flags().BoolVar(&traceNewFlags.sampled, "sampled", false, "set the sampled flag")
	traceNewCmd.Flags().StringVar(&traceNewFlags.format, "format", "text", "output format: text, json, yaml")

	traceParseCmd.Flags().StringVar(&traceParseFlags.state, "state", "", "tracestate value to parse alongside")
	traceParseCmd.Flags().StringVar(&traceParseFlags.format, "format", "text", "output format: text, json, yaml")

	traceHeadersCmd.Flags().StringVar(&traceHeadersFlags.format, "format", "text", "output format: text, json, yaml")
}

type stateEntry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

type traceResult struct {
	Traceparent string       `json:"traceparent" yaml:"traceparent"`
	TraceID     string       `json:"trace_id" yaml:"trace_id"`
	SpanID      string       `json:"span_id" yaml:"span_id"`
	Sampled     bool         `json:"sampled" yaml:"sampled"`
	Tracestate  string       `json:"tracestate,omitempty" yaml:"tracestate,omitempty"`
	State       []stateEntry `json:"state,omitempty" yaml:"state,omitempty"`
}

func newTraceResult(tc tracecontext.Context) traceResult {
	r := traceResult{
		Traceparent: tc.Header(),
		TraceID:     tc.TraceID,
		SpanID:      tc.SpanID,
		Sampled:     tc.Sampled,
		Tracestate:  tc.TraceState,
	}
	for _, m := range tracecontext.ParseState(tc.TraceState) {
		r.State = append(r.State, stateEntry{Key: m.Key, Value: m.Value})
	}
	return r
}

func (r traceResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "traceparent: %s\n", r.Traceparent)
	fmt.Fprintf(&b, "trace-id:    %s\n", r.TraceID)
	fmt.Fprintf(&b, "span-id:     %s\n", r.SpanID)
	fmt.Fprintf(&b, "sampled:     %t", r.Sampled)
	if r.Tracestate != "" {
		fmt.Fprintf(&b, "\ntracestate:  %s", r.Tracestate)
		for _, e := range r.State {
			fmt.Fprintf(&b, "\n  %s = %s", e.Key, e.Value)
		}
	}
	return b.String()
}

func runTraceNew(cmd *cobra.Command, args []string) error {
	gov, err := newGovernor(cmd)
	if err != nil {
		return err
	}
	if traceNewFlags.sampled {
		gov.ForceSample()
	}
	return printResult(cmd, traceNewFlags.format, newTraceResult(gov.CurrentTrace()))
}

func runTraceParse(cmd *cobra.Command, args []string) error {
	tc, ok := tracecontext.ParseHeader(args[0])
	if !ok {
		return cli.NewCommandError("traceparent parse", fmt.Errorf("invalid traceparent %q", args[0]))
	}
	tc.TraceState = traceParseFlags.state
	return printResult(cmd, traceParseFlags.format, newTraceResult(tc))
}

type headersResult struct {
	URL        string            `json:"url" yaml:"url"`
	Propagated bool              `json:"propagated" yaml:"propagated"`
	Headers    map[string]string `json:"headers" yaml:"headers"`
}

func (r headersResult) Text() string {
	if !r.Propagated {
		return fmt.Sprintf("%s is not a propagation target; no headers attached", r.URL)
	}
	names := make([]string, 0, len(r.Headers))
	for name := range r.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+r.Headers[name])
	}
	return strings.Join(lines, "\n")
}

func runTraceHeaders(cmd *cobra.Command, args []string) error {
	gov, err := newGovernor(cmd)
	if err != nil {
		return err
	}
	headers := gov.TraceHeaders(args[0])
	return printResult(cmd, traceHeadersFlags.format, headersResult{
		URL:        gov.SanitizeURL(args[0]),
		Propagated: len(headers) > 0,
		Headers:    headers,
	})
}
