package logging

import (
	"fmt"
	"log/slog"

	"github.com/nadi-pro/browser/pkg/privacy"
)

// Redactor masks PII in log records using a privacy engine. Values stored
// under sensitive keys are replaced outright; other string values, error
// messages and the log message itself go through pattern masking.
//
// The engine is owned by the Redactor and is never reconfigured, so a
// Redactor is safe for concurrent use.
type Redactor struct {
	engine *privacy.Engine
}

// NewRedactor creates a Redactor from privacy settings. Masking is always
// enabled regardless of cfg.Enabled.
func NewRedactor(cfg privacy.Config) (*Redactor, error) {
	cfg.Enabled = true
	// Pattern failures inside the log path must not log again.
	cfg.Logger = slog.New(slog.DiscardHandler)
	cfg.OnPatternFailure = nil

	engine, err := privacy.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("redactor: %w", err)
	}
	return &Redactor{engine: engine}, nil
}

// RedactString masks PII in value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	return r.engine.MaskText(value)
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey, slog.LevelKey, slog.SourceKey:
		return a
	case string(RequestIDKey), string(SessionIDKey), string(TraceIDKey), string(SpanIDKey):
		// Correlation IDs are often UUIDs, which the uuid pattern would mask.
		return a
	}

	if r.engine.IsSensitiveField(a.Key) {
		return slog.String(a.Key, privacy.Placeholder)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}
