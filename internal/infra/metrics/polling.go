package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		pollTicksTotal,
		pollErrorsTotal,
		pollOutcomesTotal,
		activePollLoops,
	)
}

var (
	pollTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "status_poll_ticks_total",
			Help: "Total transaction status polls issued.",
		},
	)

	pollErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "status_poll_errors_total",
			Help: "Transient fetch failures during polling (retried next tick).",
		},
	)

	pollOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_poll_outcomes_total",
			Help: "How poll loops ended.",
		},
		[]string{"outcome"}, // 'confirmed', 'failed', 'ceiling', 'cancelled'
	)

	activePollLoops = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "status_poll_active_loops",
			Help: "Poll loops currently running.",
		},
	)
)

func IncPollTick()  { pollTicksTotal.Inc() }
func IncPollError() { pollErrorsTotal.Inc() }

func IncPollOutcome(outcome string) { pollOutcomesTotal.WithLabelValues(norm(outcome)).Inc() }

func SetActivePollLoops(n float64) { activePollLoops.Set(n) }
func IncActivePollLoops()          { activePollLoops.Inc() }
func DecActivePollLoops()          { activePollLoops.Dec() }
