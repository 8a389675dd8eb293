// Package tracecontext owns the W3C Trace Context identifiers for one
// monitored session and decides which outgoing requests may carry them.
//
// # Overview
//
// A Manager holds the current trace ID, span ID, sampled flag and vendor
// trace state. It formats them as traceparent/tracestate headers, parses
// headers received from a backend, and checks outgoing URLs against a
// propagation allow-list before handing out headers.
//
// # Headers
//
// traceparent: version-trace_id-parent_id-trace_flags
//
//	00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// Only version "00" is accepted. Trace and span IDs must be lower-case hex
// and not all zeros. Bit 0 of the flags byte is the sampled bit.
//
// tracestate: comma-separated vendor=value pairs. The manager's own vendor
// entry is always first:
//
//	nadi=00f067aa0ba902b7,congo=t61rcWkgMzE
//
// # Usage
//
//	targets, err := tracecontext.ParseTargets([]string{"api.example.com", "/^https:\\/\\/.*\\.internal\\//"})
//	if err != nil {
//	    return err
//	}
//	m := tracecontext.NewManager(tracecontext.Options{
//	    Enabled: true,
//	    Origin:  "https://shop.example.com",
//	    Targets: targets,
//	})
//
//	for k, v := range m.GetHeaders("/checkout") {
//	    req.Header.Set(k, v)
//	}
//
// # Failure Handling
//
// Malformed headers and unresolvable URLs never produce errors. ParseHeader
// returns (Context{}, false) and ShouldPropagate returns false, so a bad
// input degrades to "do not propagate" instead of interrupting collection.
//
// # Concurrency
//
// A Manager is not safe for concurrent use. Hosts sharing one instance
// across goroutines must serialize access.
package tracecontext
