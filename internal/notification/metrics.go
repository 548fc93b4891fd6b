package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Dispatches   *prometheus.CounterVec
	Deliveries   *prometheus.CounterVec
	TokensPruned prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Dispatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_notification_dispatches_total",
			Help: "Notification dispatches, by type",
		}, []string{"type"}),
		Deliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_notification_deliveries_total",
			Help: "Per-device push attempts, by outcome",
		}, []string{"outcome"}),
		TokensPruned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "territorial_notification_tokens_pruned_total",
			Help: "Device tokens removed after the gateway rejected them",
		}),
	}
}

func (m *Metrics) observeDispatch(t Type, r Result) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(string(t)).Inc()
	m.Deliveries.WithLabelValues("success").Add(float64(r.SuccessCount))
	m.Deliveries.WithLabelValues("failure").Add(float64(r.FailureCount))
}

func (m *Metrics) observePruned(n int) {
	if m != nil {
		m.TokensPruned.Add(float64(n))
	}
}
