package privacy

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"
)

// Strategy selects how pattern matches are masked.
type Strategy string

const (
	// StrategyRedact replaces the whole match with Placeholder.
	StrategyRedact Strategy = "redact"
	// StrategyPartial keeps the first and last character.
	StrategyPartial Strategy = "partial"
	// StrategyHash replaces the match with a short correlation tag.
	StrategyHash Strategy = "hash"
)

const (
	// Placeholder replaces redacted values.
	Placeholder = "[REDACTED]"

	// MaskChar fills the interior of partially masked values.
	MaskChar = '*'

	// partialMinLength is the shortest match partial masking will reveal
	// any characters of.
	partialMinLength = 5
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyRedact, StrategyPartial, StrategyHash:
		return true
	}
	return false
}

// ParseStrategy parses a strategy name. The empty string means redact.
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return StrategyRedact, nil
	}
	s := Strategy(strings.ToLower(name))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Mask applies the strategy to a single matched value.
func (s Strategy) Mask(match string) string {
	switch s {
	case StrategyPartial:
		return maskPartial(match)
	case StrategyHash:
		return HashTag(match)
	default:
		return Placeholder
	}
}

func maskPartial(match string) string {
	n := utf8.RuneCountInString(match)
	if n < partialMinLength {
		return Placeholder
	}

	first, firstSize := utf8.DecodeRuneInString(match)
	last, _ := utf8.DecodeLastRuneInString(match[firstSize:])

	var b strings.Builder
	b.Grow(len(match))
	b.WriteRune(first)
	b.WriteString(strings.Repeat(string(MaskChar), n-2))
	b.WriteRune(last)
	return b.String()
}

// HashTag returns the correlation tag for value: "[HASH:" followed by the
// 32-bit FNV-1a digest as eight lower-case hex digits and "]".
func HashTag(value string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	return fmt.Sprintf("[HASH:%08x]", h.Sum32())
}
