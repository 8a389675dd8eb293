package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// InstallPropagator sets the global propagator to W3C Trace Context plus
// W3C Baggage.
func InstallPropagator() {
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
}

// Propagator returns the configured text map propagator.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// Extract extracts trace context from HTTP headers and returns a context
// with the extracted trace context.
//
// If no trace context is found in the headers, the original context is returned.
func Extract(ctx context.Context, headers http.Header) context.Context {
	return Propagator().Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject injects trace context into HTTP headers.
func Inject(ctx context.Context, headers http.Header) {
	Propagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// Response headers set by HTTPMiddleware.
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// HTTPMiddleware extracts trace context from incoming requests and echoes
// the trace and span IDs in the response headers. A span already present
// in the request context, such as an otelhttp server span, is kept.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !SpanContext(ctx).IsValid() {
			ctx = Extract(ctx, r.Header)
		}

		if sc := SpanContext(ctx); sc.IsValid() {
			w.Header().Set(HeaderTraceID, sc.TraceID().String())
			w.Header().Set(HeaderSpanID, sc.SpanID().String())
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
