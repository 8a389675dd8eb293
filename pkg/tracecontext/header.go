package tracecontext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Version is the only traceparent version produced and accepted.
	Version = "00"

	// TraceParentHeader is the W3C header carrying the trace identifiers.
	TraceParentHeader = "traceparent"

	// TraceStateHeader is the W3C header carrying vendor state.
	TraceStateHeader = "tracestate"

	// FlagSampled is bit 0 of the trace flags byte.
	FlagSampled byte = 0x01

	// maxStateMembers is the W3C upper bound on tracestate list members.
	maxStateMembers = 32
)

var (
	traceIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)
	spanIDPattern  = regexp.MustCompile(`^[0-9a-f]{16}$`)
	flagsPattern   = regexp.MustCompile(`^[0-9a-f]{2}$`)
)

// FormatHeader formats a traceparent value.
func FormatHeader(traceID, spanID string, sampled bool) string {
	flags := "00"
	if sampled {
		flags = "01"
	}
	return fmt.Sprintf("%s-%s-%s-%s", Version, traceID, spanID, flags)
}

// ParseHeader parses a traceparent value.
//
// The header is rejected unless it has exactly four dash-separated fields,
// the version is "00", the trace ID is 32 lower-case hex characters and not
// all zeros, the span ID is 16 lower-case hex characters and not all zeros,
// and the flags are two hex characters. A rejected header yields
// (Context{}, false); ParseHeader never panics.
func ParseHeader(value string) (Context, bool) {
	parts := strings.Split(value, "-")
	if len(parts) != 4 {
		return Context{}, false
	}

	version, traceID, spanID, flags := parts[0], parts[1], parts[2], parts[3]
	if version != Version {
		return Context{}, false
	}
	if !ValidTraceID(traceID) || !ValidSpanID(spanID) {
		return Context{}, false
	}
	if !flagsPattern.MatchString(flags) {
		return Context{}, false
	}

	flagByte, err := strconv.ParseUint(flags, 16, 8)
	if err != nil {
		return Context{}, false
	}

	return Context{
		TraceID: traceID,
		SpanID:  spanID,
		Sampled: byte(flagByte)&FlagSampled == FlagSampled,
	}, true
}

// ValidateHeader reports whether value is an acceptable traceparent.
func ValidateHeader(value string) bool {
	_, ok := ParseHeader(value)
	return ok
}

// ValidTraceID reports whether id is 32 lower-case hex characters and not
// all zeros.
func ValidTraceID(id string) bool {
	return traceIDPattern.MatchString(id) && !allZeroHex(id)
}

// ValidSpanID reports whether id is 16 lower-case hex characters and not all
// zeros.
func ValidSpanID(id string) bool {
	return spanIDPattern.MatchString(id) && !allZeroHex(id)
}

func allZeroHex(s string) bool {
	return strings.Trim(s, "0") == ""
}

// StateMember is a single vendor=value entry of a tracestate header.
type StateMember struct {
	Key   string
	Value string
}

// ParseState splits a tracestate value into members. Empty and malformed
// entries (no "=", empty key) are skipped.
func ParseState(value string) []StateMember {
	var members []StateMember
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, val, ok := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		members = append(members, StateMember{Key: key, Value: strings.TrimSpace(val)})
	}
	return members
}

// FormatState joins members into a tracestate value, keeping at most the
// first 32 members.
func FormatState(members []StateMember) string {
	if len(members) > maxStateMembers {
		members = members[:maxStateMembers]
	}
	entries := make([]string, 0, len(members))
	for _, m := range members {
		entries = append(entries, m.Key+"="+m.Value)
	}
	return strings.Join(entries, ",")
}
