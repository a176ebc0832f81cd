package metrics

import (
	"creator-ai-entitlement/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		subscriptionUpgradesTotal,
		subscriptionReadsTotal,
	)
}

var (
	subscriptionUpgradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_upgrades_total",
			Help: "Total subscription records created, by plan tier.",
		},
		[]string{"plan"},
	)

	subscriptionReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_reads_total",
			Help: "Subscription reads by resulting state.",
		},
		[]string{"state"}, // 'none', 'active', 'expiring_soon', 'out_of_scripts'
	)

)

func IncSubscriptionUpgrade(plan model.PlanTier) {
	subscriptionUpgradesTotal.WithLabelValues(string(plan)).Inc()
}

func IncSubscriptionRead(state model.SubscriptionState) {
	subscriptionReadsTotal.WithLabelValues(string(state)).Inc()
}
