package summarizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the inference call collectors. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the summarizer collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summarizer_requests_total",
				Help: "Inference requests by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "summarizer_request_duration_seconds",
			Help:    "Latency of inference requests.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case IsTimeout(err):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}
