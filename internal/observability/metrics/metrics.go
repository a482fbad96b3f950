package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	PurchasesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Number of completed purchases",
		},
	)

	PurchaseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_failures_total",
			Help: "Number of rejected purchase attempts by reason",
		},
		[]string{"reason"},
	)

	PurchaseDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "purchase_duration_seconds",
			Help: "Time taken to process a purchase attempt",
		},
	)

	OrphanedPayments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orphaned_payments_total",
			Help: "Number of payments flagged refund_pending by the reconciler",
		},
	)
)

func Register() {
	prometheus.MustRegister(PurchasesTotal, PurchaseFailures, PurchaseDuration, OrphanedPayments)
}
