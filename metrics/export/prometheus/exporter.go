package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sessync/sessync"
	"github.com/sessync/sessync/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() sessync.MetricsSnapshot
}

// PrometheusExporter renders sessync metrics in Prometheus text exposition
// format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter reading from the given Client.
func NewPrometheusExporter(client *sessync.Client) *PrometheusExporter {
	return &PrometheusExporter{source: client}
}

// NewPrometheusExporterFromSource creates an exporter from a custom source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler serving the current metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes the current counters in text exposition format.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()

	var b strings.Builder
	for _, def := range internaldefs.CounterDefs {
		b.WriteString("# HELP ")
		b.WriteString(def.Name)
		b.WriteString(" ")
		b.WriteString(def.Help)
		b.WriteString("\n# TYPE ")
		b.WriteString(def.Name)
		b.WriteString(" counter\n")
		b.WriteString(def.Name)
		b.WriteString(" ")
		b.WriteString(strconv.FormatUint(snapshot.Counters[def.ID], 10))
		b.WriteString("\n")
	}
	return b.String()
}
