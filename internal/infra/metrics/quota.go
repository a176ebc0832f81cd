package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		quotaConsumedTotal,
		quotaExhaustedTotal,
	)
}

var (
	quotaConsumedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_scripts_consumed_total",
			Help: "Total script credits consumed.",
		},
	)

	quotaExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_exhausted_total",
			Help: "Consume attempts rejected because the quota was spent.",
		},
	)
)

func IncQuotaConsumed()  { quotaConsumedTotal.Inc() }
func IncQuotaExhausted() { quotaExhaustedTotal.Inc() }
