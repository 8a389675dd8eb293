package privacy

import (
	"fmt"
	"log/slog"
	"strings"
)

// DefaultSensitiveFields are the object keys redacted when Config leaves
// SensitiveFields nil.
var DefaultSensitiveFields = []string{
	"password", "passwd", "secret", "token", "api_key", "apikey",
	"authorization", "cookie", "credit_card", "card_number", "cvv", "ssn",
}

// DefaultSensitiveURLParams are the query parameters scrubbed when Config
// leaves SensitiveURLParams nil.
var DefaultSensitiveURLParams = []string{
	"token", "access_token", "refresh_token", "id_token", "api_key", "apikey",
	"key", "secret", "password", "auth", "code", "session_id", "sid",
}

// Config configures an Engine.
type Config struct {
	// Enabled turns masking on. A disabled engine returns input unchanged.
	Enabled bool

	// Strategy is the masking strategy. Default: redact.
	Strategy Strategy

	// SensitiveURLParams are query parameter names whose values are
	// replaced. Nil selects DefaultSensitiveURLParams.
	SensitiveURLParams []string

	// SensitiveFields are object key fragments whose values are fully
	// redacted. Nil selects DefaultSensitiveFields.
	SensitiveFields []string

	// Patterns are custom patterns registered after the built-ins. A name
	// matching a built-in replaces it in place. A pattern that does not
	// compile is logged and skipped.
	Patterns []PatternSpec

	// ValidateCards leaves credit card matches that fail the Luhn check
	// unmasked.
	ValidateCards bool

	// Logger receives pattern failures. Default: slog.Default().
	Logger *slog.Logger

	// OnPatternFailure is called after a pattern panics.
	OnPatternFailure func(pattern string)
}

// Detection summarizes the PII found in a string.
type Detection struct {
	HasPII   bool     `json:"has_pii"`
	Patterns []string `json:"patterns"`
	Count    int      `json:"count"`
}

// Engine detects and masks PII.
type Engine struct {
	enabled       bool
	strategy      Strategy
	fields        []string
	params        []string
	validateCards bool
	patterns      *registry
	logger        *slog.Logger
	onFailure     func(string)
}

// NewEngine creates an Engine with the built-in patterns followed by
// cfg.Patterns. It fails only on an unknown strategy.
func NewEngine(cfg Config) (*Engine, error) {
	strategy, err := ParseStrategy(string(cfg.Strategy))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		enabled:       cfg.Enabled,
		strategy:      strategy,
		validateCards: cfg.ValidateCards,
		patterns:      newRegistry(),
		logger:        cfg.Logger,
		onFailure:     cfg.OnPatternFailure,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	fields := cfg.SensitiveFields
	if fields == nil {
		fields = DefaultSensitiveFields
	}
	e.SetSensitiveFields(fields)

	params := cfg.SensitiveURLParams
	if params == nil {
		params = DefaultSensitiveURLParams
	}
	e.SetSensitiveURLParams(params)

	for _, p := range builtinPatterns() {
		e.patterns.set(p)
	}

	for _, spec := range cfg.Patterns {
		p, err := spec.Compile()
		if err != nil {
			e.logger.Warn("skipping invalid privacy pattern",
				"pattern", spec.Name,
				"error", err,
			)
			continue
		}
		e.patterns.set(p)
	}
	return e, nil
}

// MaskText masks every pattern match in text, in registry order.
func (e *Engine) MaskText(text string) string {
	if !e.enabled || text == "" {
		return text
	}
	for _, p := range e.patterns.order {
		text = e.apply(p, text)
	}
	return text
}

// apply masks the matches of one pattern. A panic inside the pattern falls
// back to redacting every raw match so nothing is partially revealed.
func (e *Engine) apply(p *Pattern, text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			e.patternFailed(p.Name, r)
			out = redactAll(p, text)
		}
	}()

	accept := e.acceptFor(p)
	return p.Expr.ReplaceAllStringFunc(text, func(match string) string {
		if accept != nil && !accept(match) {
			return match
		}
		return e.strategy.Mask(match)
	})
}

func redactAll(p *Pattern, text string) (out string) {
	defer func() {
		if recover() != nil {
			out = text
		}
	}()
	return p.Expr.ReplaceAllLiteralString(text, Placeholder)
}

func (e *Engine) patternFailed(name string, recovered any) {
	e.logger.Error("privacy pattern failed",
		"pattern", name,
		"panic", fmt.Sprint(recovered),
	)
	if e.onFailure != nil {
		e.onFailure(name)
	}
}

// DetectPII reports which patterns match text and how many matches were
// found. Matches are counted the way MaskText would replace them, so a
// span claimed by an earlier pattern is not counted again.
func (e *Engine) DetectPII(text string) Detection {
	d := Detection{Patterns: []string{}}
	if text == "" {
		return d
	}

	for _, p := range e.patterns.order {
		var n int
		text, n = e.count(p, text)
		if n > 0 {
			d.Patterns = append(d.Patterns, p.Name)
			d.Count += n
		}
	}
	d.HasPII = d.Count > 0
	return d
}

func (e *Engine) count(p *Pattern, text string) (out string, n int) {
	defer func() {
		if r := recover(); r != nil {
			e.patternFailed(p.Name, r)
			out, n = text, 0
		}
	}()

	accept := e.acceptFor(p)
	out = p.Expr.ReplaceAllStringFunc(text, func(match string) string {
		if accept != nil && !accept(match) {
			return match
		}
		n++
		return Placeholder
	})
	return out, n
}

// AddPattern compiles expr and registers it under name. An existing
// pattern with the same name is replaced in place.
func (e *Engine) AddPattern(name, expr string) error {
	p, err := PatternSpec{Name: name, Expr: expr}.Compile()
	if err != nil {
		return err
	}
	e.patterns.set(p)
	return nil
}

// Register adds a prebuilt pattern. An existing pattern with the same name
// is replaced in place.
func (e *Engine) Register(p Pattern) error {
	if p.Name == "" {
		return ErrEmptyPatternName
	}
	if p.Expr == nil {
		return fmt.Errorf("%w %q: nil expression", ErrInvalidPattern, p.Name)
	}
	e.patterns.set(p)
	return nil
}

// RemovePattern unregisters a pattern and reports whether it existed.
func (e *Engine) RemovePattern(name string) bool {
	return e.patterns.remove(name)
}

// Patterns returns the registered pattern names in evaluation order.
func (e *Engine) Patterns() []string {
	return e.patterns.names()
}

// Strategy returns the masking strategy.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// SetStrategy changes the masking strategy.
func (e *Engine) SetStrategy(s Strategy) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
	e.strategy = s
	return nil
}

// Enabled reports whether masking is on.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// SetEnabled turns masking on or off.
func (e *Engine) SetEnabled(enabled bool) {
	e.enabled = enabled
}

// SensitiveFields returns the configured field fragments, lower-cased.
func (e *Engine) SensitiveFields() []string {
	return append([]string(nil), e.fields...)
}

// SetSensitiveFields replaces the sensitive field fragments.
func (e *Engine) SetSensitiveFields(fields []string) {
	e.fields = normalizeNames(fields)
}

// SensitiveURLParams returns the configured parameter names, lower-cased.
func (e *Engine) SensitiveURLParams() []string {
	return append([]string(nil), e.params...)
}

// SetSensitiveURLParams replaces the sensitive query parameter names.
func (e *Engine) SetSensitiveURLParams(params []string) {
	e.params = normalizeNames(params)
}

// SetValidateCards toggles Luhn gating of credit card matches.
func (e *Engine) SetValidateCards(enabled bool) {
	e.validateCards = enabled
}

// acceptFor returns the match filter for p. Card validation applies to
// whichever pattern is registered as credit_card.
func (e *Engine) acceptFor(p *Pattern) func(string) bool {
	if p.Accept == nil && e.validateCards && p.Name == PatternCreditCard {
		return IsValidCardNumber
	}
	return p.Accept
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}
