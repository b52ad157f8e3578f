package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for subscriber account activity.
type Metrics struct {
	RegistrationsTotal prometheus.Counter
	TierChangesTotal   *prometheus.CounterVec
	BlocklistUpdates   *prometheus.CounterVec
}

// New registers and returns subscriber metrics collectors.
func New() *Metrics {
	return &Metrics{
		RegistrationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "spamstopper_subscriber_registrations_total",
			Help: "Total subscriber accounts created",
		}),
		TierChangesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "spamstopper_subscriber_tier_changes_total",
			Help: "Subscription tier transitions, labeled by new tier",
		}, []string{"tier"}),
		BlocklistUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "spamstopper_subscriber_blocklist_updates_total",
			Help: "Blocklist add and remove operations",
		}, []string{"op"}),
	}
}
