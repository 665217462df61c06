package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(orderTransitionsTotal) }

var orderTransitionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order lifecycle transitions, labeled by source and target status.",
	},
	[]string{"from", "to"},
)

func IncOrderTransition(from, to string) {
	orderTransitionsTotal.WithLabelValues(norm(from), norm(to)).Inc()
}
