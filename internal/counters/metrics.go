package counters

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Deltas     *prometheus.CounterVec
	Duplicates *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Deltas: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_counter_deltas_total",
			Help: "Counter deltas applied, by target document kind",
		}, []string{"target"}),
		Duplicates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_counter_duplicates_total",
			Help: "Guarded deltas skipped because their idempotency marker already existed",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observeDelta(kind Kind) {
	if m != nil {
		m.Deltas.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) incDuplicate(kind string) {
	if m != nil {
		m.Duplicates.WithLabelValues(kind).Inc()
	}
}
