package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		generatorTokensIn,
		generatorTokensOut,
		generatorTokensTotal,
		generatorCallsLatencyMs,
		generatorRetriesTotal,
	)
}

var (
	generatorTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generator_tokens_in",
			Help: "Sum of prompt (input) tokens per provider.",
		},
		[]string{"provider"},
	)

	generatorTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generator_tokens_out",
			Help: "Sum of completion (output) tokens per provider.",
		},
		[]string{"provider"},
	)

	generatorTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generator_tokens_total",
			Help: "Sum of total tokens per provider.",
		},
		[]string{"provider"},
	)

	generatorCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generator_calls_latency_ms",
			Help:    "Generator call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		},
		[]string{"provider", "success"},
	)

	generatorRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generator_retries_total",
			Help: "Count of retried generator attempts per provider.",
		},
		[]string{"provider"},
	)
)

func ObserveGeneration(provider string, tokensIn, tokensOut, tokensTotal int, latencyMs int, success bool) {
	lbl := []string{norm(provider)}
	generatorTokensIn.WithLabelValues(lbl...).Add(float64(tokensIn))
	generatorTokensOut.WithLabelValues(lbl...).Add(float64(tokensOut))
	generatorTokensTotal.WithLabelValues(lbl...).Add(float64(tokensTotal))
	generatorCallsLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncGeneratorRetry(provider string) {
	generatorRetriesTotal.WithLabelValues(norm(provider)).Inc()
}
