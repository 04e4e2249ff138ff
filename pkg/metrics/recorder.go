// Package metrics records sitemap generation metrics in a private
// Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sitemapgen"

// Pass results
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultEmpty   = "empty"
)

// Recorder holds the generation metrics. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry            *prom.Registry
	passes              *prom.CounterVec
	passDuration        *prom.HistogramVec
	documents           *prom.CounterVec
	entries             *prom.GaugeVec
	compressionFailures *prom.CounterVec
	scanErrors          *prom.CounterVec
	diagnostics         *prom.CounterVec
}

// NewRecorder creates a Recorder registered in reg. A nil reg gets a fresh
// registry with the Go and process collectors.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
		reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	}
	r := &Recorder{
		registry: reg,
		passes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Generation passes by site and result",
		}, []string{"site", "result"}),
		passDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of generation passes",
			Buckets:   prom.DefBuckets,
		}, []string{"site"}),
		documents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_emitted_total",
			Help:      "Sitemap artifacts emitted, by kind (xml, gzip)",
		}, []string{"site", "kind"}),
		entries: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pass_entries",
			Help:      "URL entries in the most recent pass",
		}, []string{"site"}),
		compressionFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "compression_failures_total",
			Help:      "Documents that failed to compress",
		}, []string{"site"}),
		scanErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "scan_errors_total",
			Help:      "Directory entries that could not be read during discovery",
		}, []string{"site"}),
		diagnostics: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Diagnostics reported to the build host, by error category",
		}, []string{"site", "category"}),
	}
	reg.MustRegister(r.passes, r.passDuration, r.documents, r.entries, r.compressionFailures, r.scanErrors, r.diagnostics)
	return r
}

// Registry returns the registry the metrics are registered in
func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObservePass records a finished pass
func (r *Recorder) ObservePass(site, result string, d time.Duration, entries int) {
	if r == nil {
		return
	}
	r.passes.WithLabelValues(site, result).Inc()
	r.passDuration.WithLabelValues(site).Observe(d.Seconds())
	r.entries.WithLabelValues(site).Set(float64(entries))
}

// AddDocuments counts emitted artifacts of a kind ("xml" or "gzip")
func (r *Recorder) AddDocuments(site, kind string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.documents.WithLabelValues(site, kind).Add(float64(n))
}

// IncCompressionFailure counts a document that failed to compress
func (r *Recorder) IncCompressionFailure(site string) {
	if r == nil {
		return
	}
	r.compressionFailures.WithLabelValues(site).Inc()
}

// IncScanError counts an unreadable directory entry
func (r *Recorder) IncScanError(site string) {
	if r == nil {
		return
	}
	r.scanErrors.WithLabelValues(site).Inc()
}

// IncDiagnostic counts a diagnostic by error category
func (r *Recorder) IncDiagnostic(site, category string) {
	if r == nil {
		return
	}
	r.diagnostics.WithLabelValues(site, category).Inc()
}
