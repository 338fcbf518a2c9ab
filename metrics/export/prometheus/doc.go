// Package prometheus renders sessync client metrics in Prometheus text
// exposition format, without depending on the Prometheus client library: the
// counter set is tiny and fixed, so the exporter writes the format directly
// from a MetricsSnapshot.
package prometheus
