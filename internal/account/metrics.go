package account

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Deleted    *prometheus.CounterVec
	Registered prometheus.Counter
	Logins     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Deleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_accounts_deleted_total",
			Help: "Accounts deleted, by who asked",
		}, []string{"by"}),
		Registered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "territorial_members_registered_total",
			Help: "Members who registered and await approval",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "territorial_token_requests_total",
			Help: "Token requests, by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) incDeleted(self bool) {
	if m == nil {
		return
	}
	by := "administrator"
	if self {
		by = "self"
	}
	m.Deleted.WithLabelValues(by).Inc()
}

func (m *Metrics) incRegistered() {
	if m != nil {
		m.Registered.Inc()
	}
}

func (m *Metrics) incLogin(ok bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if ok {
		outcome = "issued"
	}
	m.Logins.WithLabelValues(outcome).Inc()
}
