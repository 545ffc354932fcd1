// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProjectsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_projects_closed_total",
			Help: "Total number of projects transitioned to closed",
		},
		[]string{"trigger"}, // "manual" or "sweep"
	)

	ApplicationsCascaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lifecycle_applications_cascaded_total",
			Help: "Total number of applications closed by project-close cascades",
		},
	)

	SweepRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweeper_runs_total",
			Help: "Total number of deadline sweep executions",
		},
	)

	SweepProjectFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sweeper_project_failures_total",
			Help: "Total number of per-project close failures during sweeps",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "sweeper_duration_seconds",
			Help: "Duration of deadline sweep executions in seconds",
		},
	)

	NotificationsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_enqueued_total",
			Help: "Total number of notification events placed on the queue",
		},
		[]string{"event_type"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications delivered",
		},
		[]string{"event_type"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notifications dropped after exhausting retries",
		},
		[]string{"event_type"},
	)

	NotificationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_retries_total",
			Help: "Total number of notification delivery retries",
		},
	)

	NotificationQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_queue_depth",
			Help: "Current number of notification events waiting on the queue",
		},
	)
)
