package privacy

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrEmptyPatternName is returned when a pattern has no name.
	ErrEmptyPatternName = errors.New("pattern name is required")

	// ErrInvalidPattern is returned when a pattern expression does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrUnknownStrategy is returned for an unrecognized masking strategy.
	ErrUnknownStrategy = errors.New("unknown masking strategy")
)

// Built-in pattern names.
const (
	PatternEmail       = "email"
	PatternCreditCard  = "credit_card"
	PatternSSN         = "ssn"
	PatternPhone       = "phone"
	PatternJWT         = "jwt"
	PatternBearerToken = "bearer_token"
	PatternAPIKey      = "api_key"
	PatternUUID        = "uuid"
	PatternIPv6        = "ipv6"
	PatternIPv4        = "ipv4"
)

// Pattern is a named PII detector.
type Pattern struct {
	Name string
	Expr *regexp.Regexp

	// Accept filters matches; a match it rejects is left as is. Nil
	// accepts every match.
	Accept func(match string) bool
}

// PatternSpec is the uncompiled form of a Pattern used in configuration.
type PatternSpec struct {
	Name string `json:"name" yaml:"name"`
	Expr string `json:"pattern" yaml:"pattern"`
}

// Compile compiles the spec into a Pattern.
func (s PatternSpec) Compile() (Pattern, error) {
	if s.Name == "" {
		return Pattern{}, ErrEmptyPatternName
	}
	re, err := regexp.Compile(s.Expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w %q: %v", ErrInvalidPattern, s.Name, err)
	}
	return Pattern{Name: s.Name, Expr: re}, nil
}

// builtinSpecs are registered in this order. Specific tokens come before
// generic digit and hex runs so they are replaced whole.
var builtinSpecs = []PatternSpec{
	{Name: PatternEmail, Expr: `[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`},
	{Name: PatternCreditCard, Expr: `\b(?:\d[ \-]?){12,18}\d\b`},
	{Name: PatternSSN, Expr: `\b\d{3}-\d{2}-\d{4}\b`},
	{Name: PatternPhone, Expr: `(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{3}\)|\b\d{3})[\s.\-]?\d{3}[\s.\-]?\d{4}\b`},
	{Name: PatternJWT, Expr: `\beyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`},
	{Name: PatternBearerToken, Expr: `(?i)\bbearer\s+[A-Za-z0-9\-._~+/]+=*`},
	{Name: PatternAPIKey, Expr: `\b(?:sk|pk|rk)_(?:live|test)_[A-Za-z0-9]{8,}\b|\bsk-[A-Za-z0-9_\-]{16,}|\bAKIA[0-9A-Z]{16}\b|(?i:\b(?:api[_\-]?key|access[_\-]?token|secret)\s*[:=]\s*)[A-Za-z0-9_\-]{8,}`},
	{Name: PatternUUID, Expr: `\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`},
	{Name: PatternIPv6, Expr: `(?i)\b(?:[0-9a-f]{1,4}:){7}[0-9a-f]{1,4}\b|\b(?:[0-9a-f]{1,4}:){1,6}(?::[0-9a-f]{1,4}){1,6}\b`},
	{Name: PatternIPv4, Expr: `\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`},
}

// builtinPatterns compiles the built-in specs.
func builtinPatterns() []Pattern {
	out := make([]Pattern, 0, len(builtinSpecs))
	for _, s := range builtinSpecs {
		out = append(out, Pattern{Name: s.Name, Expr: regexp.MustCompile(s.Expr)})
	}
	return out
}

// registry is an ordered name to pattern mapping. Replacing a name keeps
// its position.
type registry struct {
	order []*Pattern
	index map[string]int
}

func newRegistry() *registry {
	return &registry{index: make(map[string]int)}
}

func (r *registry) set(p Pattern) {
	if i, ok := r.index[p.Name]; ok {
		r.order[i] = &p
		return
	}
	r.index[p.Name] = len(r.order)
	r.order = append(r.order, &p)
}

func (r *registry) remove(name string) bool {
	i, ok := r.index[name]
	if !ok {
		return false
	}
	r.order = append(r.order[:i], r.order[i+1:]...)
	delete(r.index, name)
	for j := i; j < len(r.order); j++ {
		r.index[r.order[j].Name] = j
	}
	return true
}

func (r *registry) names() []string {
	out := make([]string, len(r.order))
	for i, p := range r.order {
		out[i] = p.Name
	}
	return out
}
