package sampling

import (
	"net/url"
	"sort"
	"strings"
)

// Conditions restrict where a rule applies. Categories are combined with
// AND; values inside a category with OR. An empty category matches
// anything.
type Conditions struct {
	RoutePrefixes   []string     `json:"route_prefixes,omitempty" yaml:"route_prefixes"`
	DeviceTypes     []DeviceType `json:"device_types,omitempty" yaml:"device_types"`
	ConnectionTypes []string     `json:"connection_types,omitempty" yaml:"connection_types"`
}

// Matches reports whether ctx satisfies every non-empty category.
func (c Conditions) Matches(ctx Context) bool {
	if len(c.RoutePrefixes) > 0 && !matchesRoute(c.RoutePrefixes, routeOf(ctx)) {
		return false
	}
	if len(c.DeviceTypes) > 0 && !containsDevice(c.DeviceTypes, ctx.DeviceType) {
		return false
	}
	if len(c.ConnectionTypes) > 0 && !containsFold(c.ConnectionTypes, ctx.ConnectionType) {
		return false
	}
	return true
}

// routeOf returns the context route, falling back to the URL path.
func routeOf(ctx Context) string {
	if ctx.Route != "" {
		return ctx.Route
	}
	if ctx.URL == "" {
		return ""
	}
	u, err := url.Parse(ctx.URL)
	if err != nil {
		return ""
	}
	return u.Path
}

func matchesRoute(prefixes []string, route string) bool {
	if route == "" {
		return false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(route, p) {
			return true
		}
	}
	return false
}

func containsDevice(devices []DeviceType, d DeviceType) bool {
	for _, v := range devices {
		if v == d {
			return true
		}
	}
	return false
}

func containsFold(values []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// Rule applies a sampling rate to contexts that match its conditions.
type Rule struct {
	// Name identifies the rule in decisions and metrics.
	Name string `json:"name" yaml:"name"`

	// Rate is the sampling probability, clamped to [0, 1].
	Rate float64 `json:"rate" yaml:"rate"`

	// Priority orders evaluation; higher runs first.
	Priority int `json:"priority" yaml:"priority"`

	// Conditions are the declarative match criteria.
	Conditions Conditions `json:"conditions" yaml:"conditions"`

	// Match is an optional extra predicate ANDed with Conditions.
	Match func(Context) bool `json:"-" yaml:"-"`
}

// Matches reports whether the rule applies to ctx.
func (r Rule) Matches(ctx Context) bool {
	if !r.Conditions.Matches(ctx) {
		return false
	}
	if r.Match != nil {
		return r.Match(ctx)
	}
	return true
}

// sortRules orders rules by descending priority. The sort is stable so
// rules of equal priority keep insertion order.
func sortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
}
