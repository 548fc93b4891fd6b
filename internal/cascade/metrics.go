package cascade

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Cascades *prometheus.CounterVec
	Removed  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Cascades: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_cascades_total",
			Help: "Completed cascade deletions, by root document kind",
		}, []string{"root"}),
		Removed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_cascade_removed_documents_total",
			Help: "Descendant documents removed by cascades",
		}, []string{"collection"}),
	}
}

func (m *Metrics) observe(root string, r Removed) {
	if m == nil {
		return
	}
	m.Cascades.WithLabelValues(root).Inc()
	m.Removed.WithLabelValues("quadras").Add(float64(r.Quadras))
	m.Removed.WithLabelValues("houses").Add(float64(r.Houses))
	m.Removed.WithLabelValues("territory_activity").Add(float64(r.Activity))
}
