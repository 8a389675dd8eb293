package sampling

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrEmptyRuleName is returned when a rule has no name.
	ErrEmptyRuleName = errors.New("sampling rule name is required")

	// ErrDuplicateRule is returned when a rule name is already registered.
	ErrDuplicateRule = errors.New("sampling rule already exists")
)

// DeviceType classifies the client device.
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
)

// Valid reports whether d is a known device type.
func (d DeviceType) Valid() bool {
	switch d {
	case DeviceDesktop, DeviceMobile, DeviceTablet:
		return true
	}
	return false
}

// Context describes the session or page being evaluated. It is read-only
// input supplied per evaluation.
type Context struct {
	// URL is the current page URL.
	URL string `json:"url"`

	// Route is the pattern-normalized path (e.g. "/products/:id").
	Route string `json:"route"`

	// HasError is set when the event being sent carries an error.
	HasError bool `json:"has_error"`

	// DeviceType is the client device class.
	DeviceType DeviceType `json:"device_type"`

	// IsSlowSession is set when page load exceeded the slow threshold.
	IsSlowSession bool `json:"is_slow_session"`

	// ConnectionType is the effective connection type (e.g. "4g", "wifi").
	ConnectionType string `json:"connection_type"`

	// Tags are free-form labels.
	Tags map[string]string `json:"tags,omitempty"`
}

// Reason explains which branch of the precedence produced a decision.
type Reason string

const (
	ReasonRule        Reason = "rule"
	ReasonGlobal      Reason = "global"
	ReasonError       Reason = "error"
	ReasonSlowSession Reason = "slow_session"
	ReasonForced      Reason = "forced"
)

// Decision is the outcome of an evaluation.
type Decision struct {
	Sampled bool    `json:"sampled"`
	Rule    string  `json:"rule,omitempty"`
	Rate    float64 `json:"rate"`
	Reason  Reason  `json:"reason"`
}

// SessionState is the memoization state of the current session.
type SessionState int

const (
	StateUnevaluated SessionState = iota
	StateDecided
	StateForced
)

func (s SessionState) String() string {
	switch s {
	case StateDecided:
		return "decided"
	case StateForced:
		return "forced"
	default:
		return "unevaluated"
	}
}

// ClampRate limits r to [0, 1]. NaN is treated as 0.
func ClampRate(r float64) float64 {
	if math.IsNaN(r) || r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// SlowSession reports whether a page load time exceeds threshold. A
// non-positive threshold disables slow-session detection.
func SlowSession(loadTime, threshold time.Duration) bool {
	return threshold > 0 && loadTime > threshold
}
