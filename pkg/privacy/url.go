package privacy

import (
	"net/url"
	"slices"
	"strings"
)

// ScrubURL replaces the values of sensitive query parameters with
// Placeholder, masks PII in the path, fragment and remaining query values,
// and drops any password in the user info. Parameter order is preserved
// and relative references stay relative. Input that does not parse is
// masked as plain text.
func (e *Engine) ScrubURL(raw string) string {
	if !e.enabled || raw == "" {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return e.MaskText(raw)
	}

	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), Placeholder)
		}
	}

	if masked := e.MaskText(u.Path); masked != u.Path {
		u.Path = masked
		u.RawPath = literalBrackets.Replace(u.EscapedPath())
	}

	u.RawQuery = e.scrubQuery(u.RawQuery)

	if masked := e.MaskText(u.Fragment); masked != u.Fragment {
		u.Fragment = masked
		u.RawFragment = literalBrackets.Replace(u.EscapedFragment())
	}

	return u.String()
}

// literalBrackets undoes the escaping of square brackets so Placeholder
// reads as is in a path or fragment. net/url accepts them unescaped there.
var literalBrackets = strings.NewReplacer("%5B", "[", "%5D", "]")

// scrubQuery rewrites a raw query pair by pair. Pairs that need no change
// are kept byte for byte.
func (e *Engine) scrubQuery(raw string) string {
	if raw == "" {
		return raw
	}

	pairs := strings.Split(raw, "&")
	for i, pair := range pairs {
		rawKey, rawValue, hasValue := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}

		if e.isSensitiveParam(key) {
			pairs[i] = rawKey + "=" + url.QueryEscape(Placeholder)
			continue
		}
		if !hasValue {
			continue
		}

		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		if masked := e.MaskText(value); masked != value {
			pairs[i] = rawKey + "=" + url.QueryEscape(masked)
		}
	}
	return strings.Join(pairs, "&")
}

func (e *Engine) isSensitiveParam(name string) bool {
	return slices.Contains(e.params, strings.ToLower(name))
}
