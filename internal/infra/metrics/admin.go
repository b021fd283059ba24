package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(adminOpTotal, verificationResolvedTotal, leadsRecordedTotal)
}

var (
	adminOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_op_total",
			Help: "Tracks admin operations by outcome.",
		},
		[]string{"op", "status"}, // status: 'ok', 'error', 'unauthorized'
	)

	verificationResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_resolved_total",
			Help: "Manual verification records resolved, labeled by resolution.",
		},
		[]string{"resolution"}, // 'approved', 'rejected'
	)

	leadsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_leads_total",
			Help: "Abandonment leads recorded, labeled by outcome.",
		},
		[]string{"status"}, // 'recorded', 'failed', 'skipped'
	)
)

func IncAdminOp(op, status string) {
	adminOpTotal.WithLabelValues(norm(op), norm(status)).Inc()
}

func IncVerificationResolved(resolution string) {
	verificationResolvedTotal.WithLabelValues(norm(resolution)).Inc()
}

func IncLead(status string) {
	leadsRecordedTotal.WithLabelValues(norm(status)).Inc()
}
