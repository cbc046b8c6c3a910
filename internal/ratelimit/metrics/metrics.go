package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"intake/internal/ratelimit/models"
)

type Metrics struct {
	Denied             *prometheus.CounterVec
	SuspiciousRecorded prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Denied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "intake_ratelimit_denied_total",
			Help: "Total number of requests denied by a throttle, by class",
		}, []string{"class"}),
		SuspiciousRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "intake_suspicious_recorded_total",
			Help: "Total number of suspicious-activity failures recorded",
		}),
	}
}

func (m *Metrics) IncrementDenied(class models.EndpointClass) {
	if m == nil {
		return
	}
	m.Denied.WithLabelValues(string(class)).Inc()
}

func (m *Metrics) IncrementSuspicious() {
	if m == nil {
		return
	}
	m.SuspiciousRecorded.Inc()
}
