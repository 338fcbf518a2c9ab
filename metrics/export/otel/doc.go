// Package otel bridges sessync client metrics into OpenTelemetry as
// observable counters. The exporter pulls a MetricsSnapshot on every
// collection cycle; nothing is pushed and no goroutines are started.
package otel
