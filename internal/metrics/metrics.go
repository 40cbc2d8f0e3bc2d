package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Total emails sent",
		},
	)

	EmailFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_failures_total",
			Help: "Total recipients whose delivery failed after all retries",
		},
	)

	SendAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "email_send_attempts_total",
			Help: "Total transport send attempts, retries included",
		},
	)

	PersistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistence_failures_total",
			Help: "Failed result-log or status writes",
		},
		[]string{"operation"},
	)

	PipelineRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Duration of completed pipeline runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	SchedulerSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_ticks_skipped_total",
			Help: "Scheduled executions skipped, by reason",
		},
		[]string{"reason"},
	)
)

func Init() {
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailFailures)
	prometheus.MustRegister(SendAttempts)
	prometheus.MustRegister(PersistenceFailures)
	prometheus.MustRegister(PipelineRuns)
	prometheus.MustRegister(PipelineRunDuration)
	prometheus.MustRegister(SchedulerSkips)
}
