package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		gatewaySessionsTotal,
		gatewayLatencyMs,
		checkoutRevenueTotal,
	)
}

var (
	gatewaySessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_sessions_total",
			Help: "Payment sessions created per provider, labeled by outcome.",
		},
		[]string{"provider", "status"}, // status: 'created', 'failed'
	)

	gatewayLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_latency_ms",
			Help:    "Provider session-creation latency distribution in milliseconds.",
			Buckets: []float64{25, 50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"provider"},
	)

	checkoutRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_revenue_total",
			Help: "The total monetary value of confirmed transactions, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncGatewaySession(provider, status string) {
	gatewaySessionsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func ObserveGatewayLatency(provider string, ms float64) {
	gatewayLatencyMs.WithLabelValues(norm(provider)).Observe(ms)
}

func AddCheckoutRevenue(currency string, amount int64) {
	checkoutRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}
