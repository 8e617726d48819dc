// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SuggestRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_suggest_requests_total",
			Help: "Suggestion requests by transport and result state",
		},
		[]string{"transport", "state"},
	)

	SuggestResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_suggest_result_size",
			Help:    "Number of suggestions returned per query",
			Buckets: []float64{0, 1, 2, 4, 6, 8},
		},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_notifications_created_total",
			Help: "Notifications added to the store",
		},
		[]string{"category", "source"},
	)

	NotificationMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_notification_mutations_total",
			Help: "Notification store mutations by operation",
		},
		[]string{"operation"},
	)

	NotificationsUnread = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_notifications_unread",
			Help: "Current unread notification count",
		},
	)

	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_storage_errors_total",
			Help: "Key-value storage failures by key and operation",
		},
		[]string{"key", "operation"},
	)

	ContactSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_contact_submissions_total",
			Help: "Contact form submissions by outcome",
		},
		[]string{"state"},
	)

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
)
