package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(generationJobsTotal, generationQueueDepth, submissionsRejected) }

var (
	generationJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_jobs_total",
			Help: "Total number of generation jobs processed, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	generationQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "generation_queue_depth",
			Help: "Number of jobs waiting in the pending queue.",
		},
	)

	submissionsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_submissions_rejected_total",
			Help: "Submissions rejected before enqueue, labeled by reason.",
		},
		[]string{"reason"}, // 'queue_full', 'rate_limited', 'invalid'
	)
)

func IncJob(status string) {
	generationJobsTotal.WithLabelValues(norm(status)).Inc()
}

func SetQueueDepth(n int) {
	generationQueueDepth.Set(float64(n))
}

func IncSubmissionRejected(reason string) {
	submissionsRejected.WithLabelValues(norm(reason)).Inc()
}
