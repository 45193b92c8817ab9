package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(breakerState, breakerTripsTotal, breakerShortCircuits) }

var (
	breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current breaker state as a one-hot gauge per state label.",
		},
		[]string{"breaker", "state"}, // 'closed', 'open', 'half_open'
	)

	breakerTripsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_trips_total",
			Help: "Times the breaker transitioned to OPEN.",
		},
		[]string{"breaker"},
	)

	breakerShortCircuits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_short_circuits_total",
			Help: "Calls rejected without invoking the wrapped function.",
		},
		[]string{"breaker"},
	)
)

func SetBreakerState(breaker, state string) {
	for _, s := range []string{"closed", "open", "half_open"} {
		v := 0.0
		if norm(state) == s {
			v = 1.0
		}
		breakerState.WithLabelValues(norm(breaker), s).Set(v)
	}
}

func IncBreakerTrip(breaker string) {
	breakerTripsTotal.WithLabelValues(norm(breaker)).Inc()
}

func IncBreakerShortCircuit(breaker string) {
	breakerShortCircuits.WithLabelValues(norm(breaker)).Inc()
}
