package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsTotal) }

var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "In-app notifications produced, labeled by kind.",
	},
	[]string{"kind"},
)

func IncNotification(kind string) {
	notificationsTotal.WithLabelValues(norm(kind)).Inc()
}
