package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for territory operations.
type Metrics struct {
	Lifecycle     *prometheus.CounterVec
	Denied        *prometheus.CounterVec
	Conflicts     *prometheus.CounterVec
	HousesReset   prometheus.Counter
	ResetDuration prometheus.Histogram
	HouseMarks    *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Lifecycle: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_territory_lifecycle_total",
			Help: "Completed territory lifecycle operations",
		}, []string{"op"}),
		Denied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_authz_denied_total",
			Help: "Requests rejected by the authorization matrix",
		}, []string{"action"}),
		Conflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_territory_version_conflicts_total",
			Help: "Optimistic writes that lost a version race and were retried",
		}, []string{"op"}),
		HousesReset: promauto.NewCounter(prometheus.CounterOpts{
			Name: "territorial_houses_reset_total",
			Help: "Houses flipped from done to undone by progress resets",
		}),
		ResetDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "territorial_reset_progress_duration_seconds",
			Help:    "Duration of territory progress resets",
			Buckets: prometheus.DefBuckets,
		}),
		HouseMarks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_house_marks_total",
			Help: "House done/undone transitions",
		}, []string{"action"}),
	}
}

func (m *Metrics) IncLifecycle(op string) {
	if m != nil {
		m.Lifecycle.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) IncDenied(action string) {
	if m != nil {
		m.Denied.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) IncConflict(op string) {
	if m != nil {
		m.Conflicts.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) ObserveReset(changed int64, d time.Duration) {
	if m == nil {
		return
	}
	m.HousesReset.Add(float64(changed))
	m.ResetDuration.Observe(d.Seconds())
}

func (m *Metrics) IncHouseMark(action string) {
	if m != nil {
		m.HouseMarks.WithLabelValues(action).Inc()
	}
}
