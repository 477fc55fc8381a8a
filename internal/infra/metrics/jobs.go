package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(jobsProcessedTotal, jobDurationSeconds, jobsRetriedTotal, jobsCleanedTotal, queueDepth)
}

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "generation_jobs_processed_total",
		Help: "Total number of generation jobs processed, labeled by terminal status.",
	},
	[]string{"status"}, // 'completed' or 'failed'
)

var jobDurationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "generation_job_duration_seconds",
		Help:    "Wall time from claim to terminal write per job.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
	},
	[]string{"kind"},
)

var jobsRetriedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "generation_jobs_retried_total",
		Help: "Failed jobs reset to pending by the retry sweep.",
	},
)

var jobsCleanedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "generation_jobs_cleaned_total",
		Help: "Terminal jobs deleted by the retention sweep.",
	},
)

var queueDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "generation_queue_depth",
		Help: "Jobs currently waiting in the ready queue.",
	},
)

func IncJobProcessed(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveJobDuration(kind string, seconds float64) {
	jobDurationSeconds.WithLabelValues(norm(kind)).Observe(seconds)
}

func AddJobsRetried(n int)   { jobsRetriedTotal.Add(float64(n)) }
func AddJobsCleaned(n int64) { jobsCleanedTotal.Add(float64(n)) }
func SetQueueDepth(n int64)  { queueDepth.Set(float64(n)) }
