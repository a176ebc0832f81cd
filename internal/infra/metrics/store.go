package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(storeOpsTotal)
}

var storeOpsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "entitlement_store_ops_total",
		Help: "Entitlement store operations by op and result.",
	},
	[]string{"op", "result"}, // op: get|set|remove; result: ok|error
)

func IncStoreOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOpsTotal.WithLabelValues(op, result).Inc()
}
