// Package tracing is a thin wrapper around OpenTelemetry so that the
// scheduler can record one span per dispatched process without the rest of
// the code base depending on the upstream API directly.
package tracing
