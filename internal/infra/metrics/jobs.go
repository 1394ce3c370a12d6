package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, jobDurationSeconds, jobsInFlight) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "shorts_jobs_processed_total",
		Help: "Total number of pipeline jobs processed, labeled by terminal status and mode.",
	},
	[]string{"status", "mode"}, // 'completed', 'failed'
)

var jobDurationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "shorts_job_duration_seconds",
		Help:    "End-to-end pipeline duration distribution.",
		Buckets: []float64{5, 15, 30, 60, 120, 240, 480, 900},
	},
	[]string{"mode"},
)

var jobsInFlight = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "shorts_jobs_in_flight",
		Help: "Number of jobs currently in the processing state.",
	},
)

func IncJob(status, mode string) {
	jobsProcessedTotal.WithLabelValues(norm(status), norm(mode)).Inc()
}

func ObserveJobDuration(mode string, seconds float64) {
	jobDurationSeconds.WithLabelValues(norm(mode)).Observe(seconds)
}

func JobStarted()  { jobsInFlight.Inc() }
func JobFinished() { jobsInFlight.Dec() }
