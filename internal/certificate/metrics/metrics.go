package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Issued        *prometheus.CounterVec
	UploadFailed  prometheus.Counter
	RenderSeconds prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Issued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_certificates_issued_total",
			Help: "Total number of certificates issued, by variant",
		}, []string{"variant"}),
		UploadFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "intake_certificate_upload_failures_total",
			Help: "Certificate PDFs that could not be written to object storage",
		}),
		RenderSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "intake_certificate_render_duration_seconds",
			Help:    "Time spent rendering certificate PDFs",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementIssued(variant string) {
	if m == nil {
		return
	}
	m.Issued.WithLabelValues(variant).Inc()
}

func (m *Metrics) IncrementUploadFailed() {
	if m == nil {
		return
	}
	m.UploadFailed.Inc()
}

func (m *Metrics) ObserveRender(seconds float64) {
	if m == nil {
		return
	}
	m.RenderSeconds.Observe(seconds)
}
