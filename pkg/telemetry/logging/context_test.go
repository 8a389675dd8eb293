package logging

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithSpanID(ctx, "span-1")

	tests := []struct {
		name string
		get  func(context.Context) string
		want string
	}{
		{name: "request", get: GetRequestID, want: "req-1"},
		{name: "session", get: GetSessionID, want: "sess-1"},
		{name: "trace", get: GetTraceID, want: "trace-1"},
		{name: "span", get: GetSpanID, want: "span-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.get(ctx); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if got := tt.get(context.Background()); got != "" {
				t.Errorf("expected empty value from empty context, got %q", got)
			}
		})
	}
}

func TestContextKeys_SpanFallback(t *testing.T) {
	tid, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	sid, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: tid, SpanID: sid})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	if got := GetTraceID(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("GetTraceID = %q", got)
	}
	if got := GetSpanID(ctx); got != "00f067aa0ba902b7" {
		t.Errorf("GetSpanID = %q", got)
	}

	// Explicit values win over the span.
	if got := GetTraceID(WithTraceID(ctx, "explicit")); got != "explicit" {
		t.Errorf("expected explicit trace ID, got %q", got)
	}
}

func TestExtractContextFields(t *testing.T) {
	if fields := extractContextFields(context.Background()); len(fields) != 0 {
		t.Errorf("expected no fields, got %v", fields)
	}

	ctx := WithSessionID(WithRequestID(context.Background(), "r"), "s")
	fields := extractContextFields(ctx)
	want := []any{"request_id", "r", "session_id", "s"}
	if len(fields) != len(want) {
		t.Fatalf("got %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d = %v, want %v", i, fields[i], want[i])
		}
	}
}
