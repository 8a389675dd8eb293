// Nadi is the governance core of a browser observability agent.
//
// It decides which sessions are sampled, masks PII before telemetry leaves
// the page, and propagates W3C trace context to allowed backends. The
// serve command exposes those decisions over HTTP for collectors that
// cannot link the Go packages; the other commands run them once from the
// shell.
//
// Usage:
//
//	# Start the governance API
//	nadi serve --config nadi.yaml
//
//	# Mask PII in text, a URL or a JSON document
//	nadi scrub "contact jane@example.com"
//	nadi scrub --url "https://shop.example.com/?token=abc"
//	nadi scrub --json payload.json
//
//	# Evaluate a sampling decision
//	nadi sample --route /checkout --device mobile
//
//	# Create or inspect a traceparent header
//	nadi traceparent new --sampled
//	nadi traceparent parse 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
//	# Check a configuration file
//	nadi validate nadi.yaml
package main

func main() {
	Execute()
}
