package tracecontext

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Target is one entry of the propagation allow-list. A Target is either a
// literal, matched as a prefix of the resolved URL or as its exact hostname,
// or a regular expression matched against the resolved URL.
type Target struct {
	literal string
	pattern *regexp.Regexp
}

// LiteralTarget returns a Target matching a URL prefix or hostname.
func LiteralTarget(s string) Target {
	return Target{literal: s}
}

// PatternTarget returns a Target matching re against the resolved URL.
func PatternTarget(re *regexp.Regexp) Target {
	return Target{pattern: re}
}

// ParseTargets converts configuration strings into Targets. Strings wrapped
// in slashes ("/^https:\/\/api\./") are compiled as regular expressions;
// everything else is a literal.
func ParseTargets(values []string) ([]Target, error) {
	targets := make([]Target, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if len(v) > 2 && strings.HasPrefix(v, "/") && strings.HasSuffix(v, "/") {
			re, err := regexp.Compile(v[1 : len(v)-1])
			if err != nil {
				return nil, fmt.Errorf("invalid propagation target %q: %w", v, err)
			}
			targets = append(targets, PatternTarget(re))
			continue
		}
		targets = append(targets, LiteralTarget(v))
	}
	return targets, nil
}

// Matches reports whether the resolved URL u is covered by t.
func (t Target) Matches(u *url.URL) bool {
	full := u.String()
	if t.pattern != nil {
		return t.pattern.MatchString(full)
	}
	if t.literal == "" {
		return false
	}
	return strings.HasPrefix(full, t.literal) ||
		strings.EqualFold(u.Hostname(), t.literal) ||
		strings.EqualFold(u.Host, t.literal)
}

// String returns the configuration form of t.
func (t Target) String() string {
	if t.pattern != nil {
		return "/" + t.pattern.String() + "/"
	}
	return t.literal
}
