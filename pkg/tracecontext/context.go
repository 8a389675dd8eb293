package tracecontext

// Context is one trace/span identifier pair with its sampled flag and
// optional vendor trace state.
type Context struct {
	// TraceID is 32 lower-case hex characters, never all zeros.
	TraceID string `json:"trace_id"`

	// SpanID is 16 lower-case hex characters, never all zeros.
	SpanID string `json:"span_id"`

	// Sampled is bit 0 of the trace flags.
	Sampled bool `json:"sampled"`

	// TraceState is the raw tracestate value, if any.
	TraceState string `json:"trace_state,omitempty"`
}

// IsValid reports whether both identifiers are well formed.
func (c Context) IsValid() bool {
	return ValidTraceID(c.TraceID) && ValidSpanID(c.SpanID)
}

// Flags returns the two-character hex flags field.
func (c Context) Flags() string {
	if c.Sampled {
		return "01"
	}
	return "00"
}

// Header formats c as a traceparent value.
func (c Context) Header() string {
	return FormatHeader(c.TraceID, c.SpanID, c.Sampled)
}
