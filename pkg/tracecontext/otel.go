package tracecontext

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// w3c is the OpenTelemetry W3C Trace Context propagator. It produces the
// same wire format as CreateHeader.
var w3c = propagation.TraceContext{}

// SpanContext converts c into a remote OpenTelemetry span context. A
// trace state that OpenTelemetry rejects is dropped.
func (c Context) SpanContext() trace.SpanContext {
	traceID, err := trace.TraceIDFromHex(c.TraceID)
	if err != nil {
		return trace.SpanContext{}
	}
	spanID, err := trace.SpanIDFromHex(c.SpanID)
	if err != nil {
		return trace.SpanContext{}
	}

	var flags trace.TraceFlags
	if c.Sampled {
		flags = trace.FlagsSampled
	}

	state, err := trace.ParseTraceState(c.TraceState)
	if err != nil {
		state = trace.TraceState{}
	}

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		TraceState: state,
		Remote:     true,
	})
}

// FromSpanContext converts an OpenTelemetry span context. It returns false
// for an invalid span context.
func FromSpanContext(sc trace.SpanContext) (Context, bool) {
	if !sc.IsValid() {
		return Context{}, false
	}
	return Context{
		TraceID:    sc.TraceID().String(),
		SpanID:     sc.SpanID().String(),
		Sampled:    sc.IsSampled(),
		TraceState: sc.TraceState().String(),
	}, true
}

// ContextWithRemote returns ctx carrying the manager's current trace as the
// remote parent, so spans started from it join the browser trace.
func (m *Manager) ContextWithRemote(ctx context.Context) context.Context {
	c := m.current
	c.TraceState = m.CreateStateHeader()
	return trace.ContextWithRemoteSpanContext(ctx, c.SpanContext())
}

// Inject writes traceparent and tracestate into carrier through the
// OpenTelemetry propagator. It ignores the allow-list; callers that need
// the allow-list use GetHeaders.
func (m *Manager) Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	w3c.Inject(m.ContextWithRemote(ctx), carrier)
}

// InjectHTTP injects trace headers into req when its URL passes
// ShouldPropagate. It reports whether headers were written.
func (m *Manager) InjectHTTP(req *http.Request) bool {
	if req == nil || req.URL == nil || !m.ShouldPropagate(req.URL.String()) {
		return false
	}
	m.Inject(req.Context(), propagation.HeaderCarrier(req.Header))
	return true
}

// Extract reads a trace context from carrier. It applies the same rules as
// ParseHeader, so only version 00 traceparent values are accepted. It
// returns false when the carrier holds no valid traceparent.
func Extract(carrier propagation.TextMapCarrier) (Context, bool) {
	c, ok := ParseHeader(strings.TrimSpace(carrier.Get(TraceParentHeader)))
	if !ok {
		return Context{}, false
	}
	c.TraceState = strings.TrimSpace(carrier.Get(TraceStateHeader))
	return c, true
}

// ExtractHTTP reads a trace context from HTTP headers.
func ExtractHTTP(h http.Header) (Context, bool) {
	return Extract(propagation.HeaderCarrier(h))
}
