package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		checksumVerificationsTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by status (pending/success/failed).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "The total monetary value of successful payments, labeled by currency.",
		},
		[]string{"currency"},
	)

	checksumVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checksum_verifications_total",
			Help: "Callback and return signature checks per gateway.",
		},
		[]string{"gateway", "outcome"}, // outcome: 'verified', 'rejected'
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amount float64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(amount)
}

func IncChecksumVerification(gateway, outcome string) {
	checksumVerificationsTotal.WithLabelValues(norm(gateway), norm(outcome)).Inc()
}
