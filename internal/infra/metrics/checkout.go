package metrics

import (
	"creator-ai-entitlement/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		checkoutOutcomesTotal,
		paymentVerifyFailuresTotal,
	)
}

var (
	checkoutOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_outcomes_total",
			Help: "Terminal checkout states per purchase attempt.",
		},
		[]string{"state"}, // 'committed', 'failed', 'cancelled'
	)

	paymentVerifyFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_verify_failures_total",
			Help: "Gateway success callbacks that failed server-side verification.",
		},
	)
)

func IncCheckoutOutcome(state model.CheckoutState) {
	checkoutOutcomesTotal.WithLabelValues(string(state)).Inc()
}

func IncPaymentVerifyFailure() {
	paymentVerifyFailuresTotal.Inc()
}
