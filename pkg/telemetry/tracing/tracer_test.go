package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/sampling"
)

type stubSource struct {
	decision sampling.Decision
	ok       bool
}

func (s stubSource) Decision() (sampling.Decision, bool) {
	return s.decision, s.ok
}

func newTestTracer(t *testing.T, sampler string, opts ...Option) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()

	exp := tracetest.NewInMemoryExporter()
	cfg := config.OTelConfig{
		Enabled:     true,
		Sampler:     sampler,
		SampleRatio: 1.0,
		ServiceName: "nadi-test",
	}
	opts = append(opts, WithExporter(exp), WithoutGlobal())
	tr, err := New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })
	return tr, exp
}

func TestNew_Disabled(t *testing.T) {
	tr, err := New(config.OTelConfig{Enabled: false})
	require.NoError(t, err)

	assert.False(t, tr.Enabled())
	assert.NoError(t, tr.ForceFlush(context.Background()))
	assert.NoError(t, tr.Shutdown(context.Background()))

	ctx, span := tr.Start(context.Background(), "noop")
	span.End()
	assert.Empty(t, TraceID(ctx))
	assert.False(t, IsSampled(ctx))
	assert.NotNil(t, tr.Provider())
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.OTelConfig
	}{
		{
			name: "session sampler without source",
			cfg:  config.OTelConfig{Enabled: true, Sampler: SamplerSession, Exporter: ExporterStdout},
		},
		{
			name: "unknown exporter",
			cfg:  config.OTelConfig{Enabled: true, Sampler: SamplerAlways, Exporter: "zipkin"},
		},
		{
			name: "otlp without endpoint",
			cfg:  config.OTelConfig{Enabled: true, Sampler: SamplerAlways, Exporter: ExporterOTLP},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, WithoutGlobal())
			assert.Error(t, err)
		})
	}
}

func TestNew_OTLPIsLazy(t *testing.T) {
	cfg := config.OTelConfig{
		Enabled:  true,
		Sampler:  SamplerNever,
		Exporter: ExporterOTLP,
		Endpoint: "127.0.0.1:1",
		OTLP:     config.OTLPConfig{Insecure: true},
	}
	tr, err := New(cfg, WithoutGlobal())
	require.NoError(t, err)
	assert.True(t, tr.Enabled())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = tr.Shutdown(ctx)
}

func TestTracer_ExportsSpans(t *testing.T) {
	tr, exp := newTestTracer(t, SamplerAlways)

	ctx, span := tr.Start(context.Background(), "privacy.scrub")
	SetPrivacyAttributes(span, "scrub", true, []string{"email"}, 2)
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))
	assert.True(t, IsSampled(ctx))
	span.End()

	require.NoError(t, tr.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "privacy.scrub", spans[0].Name)

	attrs := attribute.NewSet(spans[0].Attributes...)
	v, ok := attrs.Value(AttrPrivacyMatches)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.AsInt64())
	v, ok = attrs.Value(AttrPrivacyOperation)
	require.True(t, ok)
	assert.Equal(t, "scrub", v.AsString())
}

func TestNew_StdoutExporterWriter(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(config.OTelConfig{
		Enabled:     true,
		Exporter:    ExporterStdout,
		Sampler:     SamplerAlways,
		ServiceName: "nadi-test",
	}, WithWriter(&buf), WithoutGlobal())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	_, span := tr.Start(context.Background(), "privacy.detect")
	span.End()
	require.NoError(t, tr.ForceFlush(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"privacy.detect"`)
}

func TestTracer_SessionSampler(t *testing.T) {
	tests := []struct {
		name       string
		source     stubSource
		wantSpans  int
		wantReason string
	}{
		{
			name:       "sampled session",
			source:     stubSource{decision: sampling.Decision{Sampled: true, Rate: 1, Reason: sampling.ReasonError}, ok: true},
			wantSpans:  1,
			wantReason: "error",
		},
		{
			name:      "unsampled session",
			source:    stubSource{decision: sampling.Decision{Sampled: false, Reason: sampling.ReasonGlobal}, ok: true},
			wantSpans: 0,
		},
		{
			name:      "undecided session without parent",
			source:    stubSource{},
			wantSpans: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, exp := newTestTracer(t, SamplerSession, WithSessionSource(tt.source))

			_, span := tr.Start(context.Background(), "request")
			span.End()
			require.NoError(t, tr.ForceFlush(context.Background()))

			spans := exp.GetSpans()
			require.Len(t, spans, tt.wantSpans)
			if tt.wantReason != "" {
				set := attribute.NewSet(spans[0].Attributes...)
				v, ok := set.Value(sampling.AttrReason)
				require.True(t, ok)
				assert.Equal(t, tt.wantReason, v.AsString())
			}
		})
	}
}

func TestSetError(t *testing.T) {
	tr, exp := newTestTracer(t, SamplerAlways)

	_, span := tr.Start(context.Background(), "failing")
	SetError(span, nil)
	SetError(span, errors.New("boom"))
	span.End()
	require.NoError(t, tr.ForceFlush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "boom", spans[0].Status.Description)
	assert.Len(t, spans[0].Events, 1)
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		source   sampling.DecisionSource
		wantErr  bool
		wantDesc string
	}{
		{name: "always", strategy: SamplerAlways, wantDesc: "ParentBased{root:AlwaysOnSampler"},
		{name: "never", strategy: SamplerNever, wantDesc: "ParentBased{root:AlwaysOffSampler"},
		{name: "ratio", strategy: SamplerRatio, ratio: 0.5, wantDesc: "ParentBased{root:TraceIDRatioBased{0.5}"},
		{name: "ratio too high", strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{name: "ratio negative", strategy: SamplerRatio, ratio: -0.1, wantErr: true},
		{name: "session", strategy: SamplerSession, source: stubSource{}, wantDesc: "NadiSessionSampler"},
		{name: "empty defaults to session", strategy: "", source: stubSource{}, wantDesc: "NadiSessionSampler"},
		{name: "session without source", strategy: SamplerSession, wantErr: true},
		{name: "unknown", strategy: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := createSampler(tt.strategy, tt.ratio, tt.source)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, s.Description(), tt.wantDesc)
		})
	}
}
