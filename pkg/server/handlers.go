package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/nadi-pro/browser/pkg/sampling"
	"github.com/nadi-pro/browser/pkg/server/middleware"
	"github.com/nadi-pro/browser/pkg/telemetry/tracing"
	"github.com/nadi-pro/browser/pkg/tracecontext"
)

// ScrubRequest is the body of POST /v1/scrub. At least one field must be
// set; each one set is masked and returned.
type ScrubRequest struct {
	Text   *string `json:"text,omitempty"`
	URL    *string `json:"url,omitempty"`
	Object any     `json:"object,omitempty"`
}

// ScrubResponse carries the masked forms of a ScrubRequest.
type ScrubResponse struct {
	Text   *string `json:"text,omitempty"`
	URL    *string `json:"url,omitempty"`
	Object any     `json:"object,omitempty"`
}

// DetectRequest is the body of POST /v1/detect.
type DetectRequest struct {
	Text string `json:"text"`
}

// SampleRequest is the body of POST /v1/sample. LoadTimeMS, when set,
// marks the session slow if it exceeds the configured threshold.
type SampleRequest struct {
	sampling.Context
	LoadTimeMS *int64 `json:"load_time_ms,omitempty"`
}

// SampleResponse is a sampling decision for the current session.
type SampleResponse struct {
	sampling.Decision
	SessionID string `json:"session_id"`
	Memoized  bool   `json:"memoized"`
}

// SessionResponse is returned by POST /v1/session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// TraceHeadersResponse is returned by GET /v1/trace/headers.
type TraceHeadersResponse struct {
	URL        string            `json:"url"`
	Propagated bool              `json:"propagated"`
	Headers    map[string]string `json:"headers"`
}

// TraceParseRequest is the body of POST /v1/trace/parse. With Adopt set,
// a valid context becomes the governor's current trace.
type TraceParseRequest struct {
	Traceparent string `json:"traceparent"`
	Tracestate  string `json:"tracestate,omitempty"`
	Adopt       bool   `json:"adopt,omitempty"`
}

// TraceParseResponse is a parsed trace context.
type TraceParseResponse struct {
	tracecontext.Context
	Adopted bool `json:"adopted"`
}

func (s *Server) handleScrub(w http.ResponseWriter, r *http.Request) {
	var req ScrubRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == nil && req.URL == nil && req.Object == nil {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest,
			"one of text, url or object is required")
		return
	}

	var resp ScrubResponse
	changed := false
	if req.Text != nil {
		masked := s.gov.SanitizeText(*req.Text)
		changed = changed || masked != *req.Text
		resp.Text = &masked
	}
	if req.URL != nil {
		masked := s.gov.SanitizeURL(*req.URL)
		changed = changed || masked != *req.URL
		resp.URL = &masked
	}
	if req.Object != nil {
		resp.Object = s.gov.Sanitize(req.Object)
	}

	span := s.requestSpan(r)
	tracing.SetPrivacyAttributes(span, "scrub", changed, nil, 0)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d := s.gov.Detect(req.Text)

	span := s.requestSpan(r)
	tracing.SetPrivacyAttributes(span, "detect", false, d.Patterns, d.Count)

	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	memoize := false
	if v := r.URL.Query().Get("session"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest,
				fmt.Sprintf("invalid session parameter %q", v))
			return
		}
		memoize = b
	}

	var req SampleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DeviceType != "" && !req.DeviceType.Valid() {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest,
			fmt.Sprintf("unknown device_type %q", req.DeviceType))
		return
	}
	if req.LoadTimeMS != nil {
		if *req.LoadTimeMS < 0 {
			middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest,
				"load_time_ms must not be negative")
			return
		}
		if s.gov.IsSlow(time.Duration(*req.LoadTimeMS) * time.Millisecond) {
			req.IsSlowSession = true
		}
	}

	var d sampling.Decision
	if memoize {
		d = s.gov.ShouldSend(req.Context)
	} else {
		d = s.gov.Evaluate(req.Context)
	}

	s.writeDecision(w, r, d, memoize)
}

func (s *Server) handleForceSample(w http.ResponseWriter, r *http.Request) {
	s.writeDecision(w, r, s.gov.ForceSample(), true)
}

func (s *Server) writeDecision(w http.ResponseWriter, r *http.Request, d sampling.Decision, memoized bool) {
	span := s.requestSpan(r)
	tracing.SetSamplingAttributes(span, d.Sampled, string(d.Reason), d.Rate)

	writeJSON(w, http.StatusOK, SampleResponse{
		Decision:  d,
		SessionID: s.gov.SessionID(),
		Memoized:  memoized,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := s.gov.StartSession()
	s.logger.InfoContext(r.Context(), "session started", "session_id", id)
	s.requestSpan(r)
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id})
}

func (s *Server) handleTraceHeaders(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest,
			"url query parameter is required")
		return
	}

	headers := s.gov.TraceHeaders(target)

	host := ""
	if u, err := url.Parse(target); err == nil {
		host = u.Host
	}
	span := s.requestSpan(r)
	tracing.SetPropagationAttributes(span, host, len(headers) > 0)

	writeJSON(w, http.StatusOK, TraceHeadersResponse{
		URL:        s.gov.SanitizeURL(target),
		Propagated: len(headers) > 0,
		Headers:    headers,
	})
}

func (s *Server) handleTraceParse(w http.ResponseWriter, r *http.Request) {
	var req TraceParseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tc, ok := tracecontext.ParseHeader(req.Traceparent)
	if !ok {
		middleware.WriteError(w, r, http.StatusUnprocessableEntity, middleware.ErrorTypeUnprocessable,
			"invalid traceparent header")
		return
	}
	tc.TraceState = req.Tracestate

	resp := TraceParseResponse{Context: tc}
	if req.Adopt {
		resp.Adopted = s.gov.AdoptServerTrace(req.Traceparent, req.Tracestate)
	}
	s.requestSpan(r)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gov.Status())
}

// requestSpan returns the span of r and tags it with the request and
// session IDs.
func (s *Server) requestSpan(r *http.Request) trace.Span {
	span := trace.SpanFromContext(r.Context())
	tracing.SetRequestAttributes(span, middleware.GetRequestID(r.Context()), s.gov.SessionID())
	return span
}

// decodeJSON decodes the request body into v. On failure it writes the
// error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		middleware.WriteError(w, r, http.StatusRequestEntityTooLarge, middleware.ErrorTypeTooLarge,
			fmt.Sprintf("request body exceeds maximum size of %d bytes", tooLarge.Limit))
	case errors.Is(err, io.EOF):
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest,
			"request body is required")
	default:
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ErrorTypeInvalidRequest,
			fmt.Sprintf("invalid JSON: %v", err))
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
