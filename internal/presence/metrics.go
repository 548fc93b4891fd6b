package presence

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Events  *prometheus.CounterVec
	Reaped  prometheus.Counter
	Pending prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_presence_events_total",
			Help: "Presence events consumed, by outcome",
		}, []string{"outcome"}),
		Reaped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "territorial_presence_testaments_reaped_total",
			Help: "Disconnect testaments fired because a lease lapsed",
		}),
		Pending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "territorial_presence_pending_entries",
			Help: "Entries read but not yet acknowledged in the last pending scan",
		}),
	}
}

func (m *Metrics) observeEvent(applied bool) {
	if m == nil {
		return
	}
	outcome := "stale"
	if applied {
		outcome = "applied"
	}
	m.Events.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeReaped(n int) {
	if m != nil {
		m.Reaped.Add(float64(n))
	}
}

func (m *Metrics) setPending(n int) {
	if m != nil {
		m.Pending.Set(float64(n))
	}
}
