// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	// ExtractionsTotal counts extractor outcomes: ok, invalid_json, failed.
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_extractions_total",
			Help: "Language-model extractions by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_validation_failures_total",
			Help: "Incident records rejected by the validator",
		},
		[]string{"field"},
	)

	// DeliveriesTotal counts webhook outcomes: success, http_error, timeout, network_error, invalid.
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_deliveries_total",
			Help: "Webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "incident_delivery_duration_seconds",
			Help:    "Webhook round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ConfirmationsSpoken = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "incident_confirmations_spoken_total",
			Help: "Voice confirmations by outcome",
		},
		[]string{"outcome"},
	)
)
