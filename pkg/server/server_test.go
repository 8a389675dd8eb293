package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/nadi-pro/browser/pkg/config"
	"github.com/nadi-pro/browser/pkg/governor"
	"github.com/nadi-pro/browser/pkg/sampling"
	"github.com/nadi-pro/browser/pkg/server/middleware"
	"github.com/nadi-pro/browser/pkg/telemetry/health"
	"github.com/nadi-pro/browser/pkg/telemetry/metrics"
	"github.com/nadi-pro/browser/pkg/telemetry/tracing"
)

const validTraceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("session-%d", n)
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Tracing.PropagationTargets = []string{"https://api.example.com"}
	cfg.Tracing.Origin = "https://shop.example.com"
	cfg.Sampling.Rate = 0.5
	cfg.Sampling.Rules = []config.RuleConfig{
		{Name: "checkout", Rate: 1, Priority: 10, RoutePrefixes: []string{"/checkout"}},
	}
	return cfg
}

type fixture struct {
	srv *Server
	gov *governor.Governor
	reg *prometheus.Registry
}

func newFixture(t *testing.T, cfg *config.Config, opts ...Option) *fixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(cfg.Telemetry.Metrics, reg)

	gov, err := governor.New(cfg,
		governor.WithRandom(fixedRandom(0.9)),
		governor.WithSessionIDs(sequentialIDs()),
		governor.WithEntropy(bytes.NewReader(bytes.Repeat([]byte{0xab}, 4096))),
		governor.WithMetrics(collector),
	)
	require.NoError(t, err)

	checker := health.New(time.Second)
	gov.RegisterChecks(checker)

	opts = append([]Option{
		WithMetrics(collector),
		WithHealth(checker),
		WithVersion(health.NewVersionInfo("1.2.3", "abc123", "")),
	}, opts...)
	srv, err := New(cfg, gov, opts...)
	require.NoError(t, err)

	return &fixture{srv: srv, gov: gov, reg: reg}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestNew_Errors(t *testing.T) {
	gov, err := governor.New(config.Default())
	require.NoError(t, err)

	_, err = New(nil, gov)
	assert.Error(t, err)

	_, err = New(config.Default(), nil)
	assert.Error(t, err)
}

func TestScrub(t *testing.T) {
	f := newFixture(t, testConfig())

	t.Run("text url and object", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/v1/scrub", `{
			"text": "contact jane@example.com",
			"url": "https://shop.example.com/cart?token=abc123&page=2",
			"object": {"user": {"password": "hunter2", "note": "mail jane@example.com"}}
		}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[ScrubResponse](t, w)
		require.NotNil(t, resp.Text)
		assert.NotContains(t, *resp.Text, "jane@example.com")
		assert.Contains(t, *resp.Text, "contact ")

		require.NotNil(t, resp.URL)
		assert.NotContains(t, *resp.URL, "abc123")
		assert.Contains(t, *resp.URL, "page=2")

		obj, ok := resp.Object.(map[string]any)
		require.True(t, ok)
		user := obj["user"].(map[string]any)
		assert.Equal(t, "[REDACTED]", user["password"])
		assert.NotContains(t, user["note"], "jane@example.com")
	})

	t.Run("only requested fields returned", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/v1/scrub", `{"text": "nothing to hide"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"text": "nothing to hide"}`, w.Body.String())
	})

	t.Run("empty request", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/v1/scrub", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[middleware.ErrorResponse](t, w)
		assert.Equal(t, middleware.ErrorTypeInvalidRequest, resp.Error.Type)
		assert.NotEmpty(t, resp.Error.RequestID)
	})
}

func TestDetect(t *testing.T) {
	f := newFixture(t, testConfig())

	w := f.do(t, http.MethodPost, "/v1/detect", `{"text": "jane@example.com and joe@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var d struct {
		HasPII   bool     `json:"has_pii"`
		Patterns []string `json:"patterns"`
		Count    int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.True(t, d.HasPII)
	assert.Contains(t, d.Patterns, "email")
	assert.GreaterOrEqual(t, d.Count, 2)

	w = f.do(t, http.MethodPost, "/v1/detect", `{"text": "plain text"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.False(t, d.HasPII)
	assert.Empty(t, d.Patterns)
}

func TestSample(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantSample bool
		wantReason sampling.Reason
		wantRule   string
	}{
		{
			name:       "global rate",
			body:       `{"route": "/home"}`,
			wantSample: false,
			wantReason: sampling.ReasonGlobal,
		},
		{
			name:       "rule match",
			body:       `{"route": "/checkout/pay"}`,
			wantSample: true,
			wantReason: sampling.ReasonRule,
			wantRule:   "checkout",
		},
		{
			name:       "error wins",
			body:       `{"route": "/home", "has_error": true}`,
			wantSample: true,
			wantReason: sampling.ReasonError,
		},
		{
			name:       "slow load time",
			body:       `{"route": "/home", "load_time_ms": 60000}`,
			wantSample: true,
			wantReason: sampling.ReasonSlowSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Sampling.AlwaysSampleSlowSessions = true
			f := newFixture(t, cfg)

			w := f.do(t, http.MethodPost, "/v1/sample", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			resp := decode[SampleResponse](t, w)
			assert.Equal(t, tt.wantSample, resp.Sampled)
			assert.Equal(t, tt.wantReason, resp.Reason)
			assert.Equal(t, tt.wantRule, resp.Rule)
			assert.Equal(t, "session-1", resp.SessionID)
			assert.False(t, resp.Memoized)

			_, decided := f.gov.Decision()
			assert.False(t, decided, "evaluation without ?session must not memoize")
		})
	}
}

func TestSample_SessionMemoized(t *testing.T) {
	f := newFixture(t, testConfig())

	w := f.do(t, http.MethodPost, "/v1/sample?session=true", `{"route": "/checkout"}`)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[SampleResponse](t, w)
	assert.True(t, first.Sampled)
	assert.True(t, first.Memoized)

	w = f.do(t, http.MethodPost, "/v1/sample?session=true", `{"route": "/home"}`)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[SampleResponse](t, w)
	assert.Equal(t, first.Decision, second.Decision)

	w = f.do(t, http.MethodPost, "/v1/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "session-2", decode[SessionResponse](t, w).SessionID)

	w = f.do(t, http.MethodPost, "/v1/sample?session=true", `{"route": "/home"}`)
	require.Equal(t, http.StatusOK, w.Code)
	third := decode[SampleResponse](t, w)
	assert.False(t, third.Sampled)
	assert.Equal(t, "session-2", third.SessionID)
}

func TestSample_Force(t *testing.T) {
	f := newFixture(t, testConfig())

	w := f.do(t, http.MethodPost, "/v1/sample/force", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SampleResponse](t, w)
	assert.True(t, resp.Sampled)
	assert.Equal(t, sampling.ReasonForced, resp.Reason)

	w = f.do(t, http.MethodPost, "/v1/sample?session=true", `{"route": "/home"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[SampleResponse](t, w).Sampled)
}

func TestSample_BadRequests(t *testing.T) {
	f := newFixture(t, testConfig())

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{name: "invalid session flag", target: "/v1/sample?session=maybe", body: `{}`},
		{name: "unknown device", target: "/v1/sample", body: `{"device_type": "watch"}`},
		{name: "negative load time", target: "/v1/sample", body: `{"load_time_ms": -1}`},
		{name: "unknown field", target: "/v1/sample", body: `{"routes": "/home"}`},
		{name: "malformed json", target: "/v1/sample", body: `{"route":`},
		{name: "empty body", target: "/v1/sample", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			resp := decode[middleware.ErrorResponse](t, w)
			assert.Equal(t, middleware.ErrorTypeInvalidRequest, resp.Error.Type)
		})
	}
}

func TestTraceHeaders(t *testing.T) {
	f := newFixture(t, testConfig())

	w := f.do(t, http.MethodGet, "/v1/trace/headers?url=https://api.example.com/v1/cart", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[TraceHeadersResponse](t, w)
	assert.True(t, resp.Propagated)
	assert.Regexp(t, `^00-[0-9a-f]{32}-[0-9a-f]{16}-0[01]$`, resp.Headers["traceparent"])

	w = f.do(t, http.MethodGet, "/v1/trace/headers?url=https://cdn.other.com/app.js", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[TraceHeadersResponse](t, w)
	assert.False(t, resp.Propagated)
	assert.Empty(t, resp.Headers)

	w = f.do(t, http.MethodGet, "/v1/trace/headers", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTraceParse(t *testing.T) {
	f := newFixture(t, testConfig())

	t.Run("valid", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/v1/trace/parse",
			`{"traceparent": "`+validTraceparent+`", "tracestate": "nadi=1"}`)
		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[TraceParseResponse](t, w)
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", resp.TraceID)
		assert.Equal(t, "00f067aa0ba902b7", resp.SpanID)
		assert.True(t, resp.Sampled)
		assert.Equal(t, "nadi=1", resp.TraceState)
		assert.False(t, resp.Adopted)
		assert.NotEqual(t, resp.TraceID, f.gov.CurrentTrace().TraceID)
	})

	t.Run("adopt", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/v1/trace/parse",
			`{"traceparent": "`+validTraceparent+`", "adopt": true}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[TraceParseResponse](t, w).Adopted)
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", f.gov.CurrentTrace().TraceID)
	})

	t.Run("invalid", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/v1/trace/parse", `{"traceparent": "00-xyz-01"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decode[middleware.ErrorResponse](t, w)
		assert.Equal(t, middleware.ErrorTypeUnprocessable, resp.Error.Type)
	})
}

func TestStatus(t *testing.T) {
	f := newFixture(t, testConfig())

	f.do(t, http.MethodPost, "/v1/sample?session=true", `{"route": "/checkout"}`)

	w := f.do(t, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	status := decode[governor.Status](t, w)
	assert.Equal(t, "session-1", status.SessionID)
	require.NotNil(t, status.Sampling.Decision)
	assert.True(t, status.Sampling.Decision.Sampled)
	assert.Equal(t, []string{"checkout"}, status.Sampling.Rules)
	assert.Equal(t, []string{"https://api.example.com"}, status.Tracing.Targets)
	assert.True(t, status.Privacy.Enabled)
}

func TestRouting(t *testing.T) {
	f := newFixture(t, testConfig())

	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodGet, "/v1/scrub", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/v1/unknown", "").Code)

	w := f.do(t, http.MethodGet, "/v1/status", "")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxBodyBytes = 64
	f := newFixture(t, cfg)

	body := `{"text": "` + strings.Repeat("a", 200) + `"}`
	w := f.do(t, http.MethodPost, "/v1/scrub", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, middleware.ErrorTypeTooLarge, decode[middleware.ErrorResponse](t, w).Error.Type)
}

func TestTelemetryRoutes(t *testing.T) {
	f := newFixture(t, testConfig())

	f.do(t, http.MethodPost, "/v1/session", "")

	w := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nadi_governor_http_requests_total")
	assert.Contains(t, w.Body.String(), `route="POST /v1/session"`)

	w = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1.2.3")
}

func TestTelemetryRoutes_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry.Metrics.Enabled = false
	cfg.Telemetry.Health.Enabled = false
	f := newFixture(t, cfg)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/ready", "").Code)
}

func TestSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tr, err := tracing.New(config.OTelConfig{
		Enabled:     true,
		Sampler:     tracing.SamplerAlways,
		SampleRatio: 1,
		ServiceName: "nadi-test",
	}, tracing.WithExporter(exp), tracing.WithoutGlobal())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Shutdown(context.Background()) })

	f := newFixture(t, testConfig(), WithTracer(tr))

	w := f.do(t, http.MethodPost, "/v1/sample", `{"route": "/checkout"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(tracing.HeaderTraceID))

	require.NoError(t, tr.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST /v1/sample", spans[0].Name)

	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, true, attrs[tracing.AttrSampled])
	assert.Equal(t, "rule", attrs[tracing.AttrSamplingReason])
	assert.Equal(t, "session-1", attrs[tracing.AttrSessionID])
	assert.NotEmpty(t, attrs[tracing.AttrRequestID])
}

func TestStartShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ListenAddress = "127.0.0.1:0"
	f := newFixture(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Start(ctx) }()

	require.Eventually(t, func() bool { return f.srv.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, f.srv.IsRunning())
	assert.Error(t, f.srv.Start(ctx), "second Start must fail")

	resp, err := http.Get("http://" + f.srv.Addr() + "/v1/status")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.False(t, f.srv.IsRunning())
}
