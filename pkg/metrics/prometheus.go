package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects analysis metrics on its own registry.
type Recorder struct {
	registry        *prometheus.Registry
	analyses        *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	rejectedUploads *prometheus.CounterVec
}

// New creates a Prometheus recorder with Go runtime collectors attached.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candle_lens_analyses_total",
				Help: "Total number of chart analyses by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "candle_lens_analysis_duration_seconds",
				Help:    "Duration of chart analyses in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		rejectedUploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "candle_lens_rejected_uploads_total",
				Help: "Total number of uploads rejected before analysis",
			},
			[]string{"reason"},
		),
	}
}

// RecordAnalysis records one settled analysis.
func (r *Recorder) RecordAnalysis(backend, outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(backend, outcome).Inc()
	r.latency.WithLabelValues(backend).Observe(seconds)
}

// RecordRejectedUpload records an upload refused before it reached a backend.
func (r *Recorder) RecordRejectedUpload(reason string) {
	if r == nil {
		return
	}
	r.rejectedUploads.WithLabelValues(reason).Inc()
}

// Handler exposes the recorder's registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
