package tracecontext

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	mrand "math/rand/v2"
	"net/url"
)

// DefaultVendor is the tracestate key written by this library.
const DefaultVendor = "nadi"

// Options configures a Manager.
type Options struct {
	// Enabled turns header propagation on. A disabled manager still keeps
	// identifiers but ShouldPropagate always returns false.
	Enabled bool

	// Origin is the page origin relative URLs are resolved against
	// (e.g. "https://shop.example.com").
	Origin string

	// Targets is the propagation allow-list.
	Targets []Target

	// TraceState holds extra vendor members appended after our own entry.
	TraceState string

	// Vendor is the tracestate key for our own entry.
	// Default: "nadi"
	Vendor string

	// Sampled is the initial sampled flag.
	Sampled bool

	// Entropy overrides the identifier source. Default: crypto/rand.
	Entropy io.Reader
}

// Manager owns the current trace context of one session.
type Manager struct {
	enabled bool
	origin  *url.URL
	targets []Target
	vendor  string
	entropy io.Reader
	current Context
}

// NewManager creates a Manager with freshly generated identifiers.
func NewManager(opts Options) *Manager {
	m := &Manager{
		enabled: opts.Enabled,
		targets: append([]Target(nil), opts.Targets...),
		vendor:  opts.Vendor,
		entropy: opts.Entropy,
	}
	if m.vendor == "" {
		m.vendor = DefaultVendor
	}
	if m.entropy == nil {
		m.entropy = rand.Reader
	}
	m.SetOrigin(opts.Origin)

	m.current = Context{
		TraceID:    m.GenerateTraceID(),
		SpanID:     m.GenerateSpanID(),
		Sampled:    opts.Sampled,
		TraceState: opts.TraceState,
	}
	return m
}

// GenerateTraceID returns 32 lower-case hex characters, never all zeros.
func (m *Manager) GenerateTraceID() string {
	return m.randomHex(16)
}

// GenerateSpanID returns 16 lower-case hex characters, never all zeros.
func (m *Manager) GenerateSpanID() string {
	return m.randomHex(8)
}

// randomHex reads n bytes from the entropy source. If the source fails or
// yields all zeros, it switches to math/rand until a non-zero value appears.
func (m *Manager) randomHex(n int) string {
	b := make([]byte, n)
	if _, err := io.ReadFull(m.entropy, b); err == nil && !allZeroBytes(b) {
		return hex.EncodeToString(b)
	}
	for {
		for i := range b {
			b[i] = byte(mrand.IntN(256))
		}
		if !allZeroBytes(b) {
			return hex.EncodeToString(b)
		}
	}
}

func allZeroBytes(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Current returns a copy of the current context.
func (m *Manager) Current() Context {
	return m.current
}

// CreateHeader formats the current context as a traceparent value. A
// non-empty spanOverride replaces the current span ID in the output only.
func (m *Manager) CreateHeader(spanOverride ...string) string {
	spanID := m.current.SpanID
	if len(spanOverride) > 0 && spanOverride[0] != "" {
		spanID = spanOverride[0]
	}
	return FormatHeader(m.current.TraceID, spanID, m.current.Sampled)
}

// CreateStateHeader returns the tracestate value: our vendor entry first,
// followed by the configured members with any duplicate of our key removed.
func (m *Manager) CreateStateHeader() string {
	members := []StateMember{{Key: m.vendor, Value: m.current.SpanID}}
	for _, member := range ParseState(m.current.TraceState) {
		if member.Key == m.vendor {
			continue
		}
		members = append(members, member)
	}
	return FormatState(members)
}

// ShouldPropagate reports whether trace headers may be attached to a request
// for rawURL. It is false when the manager is disabled, when no targets are
// configured, or when rawURL cannot be resolved to an absolute URL.
func (m *Manager) ShouldPropagate(rawURL string) bool {
	if !m.enabled || len(m.targets) == 0 {
		return false
	}

	resolved, ok := m.resolve(rawURL)
	if !ok {
		return false
	}

	for _, t := range m.targets {
		if t.Matches(resolved) {
			return true
		}
	}
	return false
}

func (m *Manager) resolve(rawURL string) (*url.URL, bool) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	if m.origin != nil {
		ref = m.origin.ResolveReference(ref)
	}
	if ref.Scheme == "" || ref.Host == "" {
		return nil, false
	}
	return ref, true
}

// GetHeaders returns the headers to attach to a request for rawURL. The map
// is empty when ShouldPropagate is false; tracestate is omitted when empty.
func (m *Manager) GetHeaders(rawURL string) map[string]string {
	headers := make(map[string]string, 2)
	if !m.ShouldPropagate(rawURL) {
		return headers
	}

	headers[TraceParentHeader] = m.CreateHeader()
	if state := m.CreateStateHeader(); state != "" {
		headers[TraceStateHeader] = state
	}
	return headers
}

// Adopt replaces the whole context, typically with one issued by a backend.
// An invalid context is ignored and Adopt returns false.
func (m *Manager) Adopt(c Context) bool {
	if !c.IsValid() {
		return false
	}
	m.current = c
	return true
}

// AdoptHeader parses traceparent/tracestate values and adopts the result.
func (m *Manager) AdoptHeader(traceparent, tracestate string) bool {
	c, ok := ParseHeader(traceparent)
	if !ok {
		return false
	}
	c.TraceState = tracestate
	return m.Adopt(c)
}

// Reset regenerates the trace and span IDs. The sampled flag and trace
// state are kept.
func (m *Manager) Reset() {
	m.current.TraceID = m.GenerateTraceID()
	m.current.SpanID = m.GenerateSpanID()
}

// Enabled reports whether propagation is enabled.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// SetEnabled turns propagation on or off.
func (m *Manager) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// SetSampled sets the sampled flag written into headers.
func (m *Manager) SetSampled(sampled bool) {
	m.current.Sampled = sampled
}

// SetTraceState replaces the configured vendor members.
func (m *Manager) SetTraceState(state string) {
	m.current.TraceState = state
}

// SetTargets replaces the propagation allow-list.
func (m *Manager) SetTargets(targets []Target) {
	m.targets = append([]Target(nil), targets...)
}

// SetOrigin sets the origin relative URLs resolve against. An empty or
// unparsable origin disables resolution of relative URLs.
func (m *Manager) SetOrigin(origin string) {
	m.origin = nil
	if origin == "" {
		return
	}
	if u, err := url.Parse(origin); err == nil && u.Scheme != "" && u.Host != "" {
		m.origin = u
	}
}

// Targets returns a copy of the propagation allow-list.
func (m *Manager) Targets() []Target {
	return append([]Target(nil), m.targets...)
}
