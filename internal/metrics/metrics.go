// Package metrics exposes Prometheus counters for the preview workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncPreviews tracks fast-path previews that returned data directly.
	SyncPreviews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preview_sync_success_total",
		Help: "The total number of previews satisfied by the synchronous path.",
	})
	// Escalations tracks fast-path failures that fell through to the async path.
	Escalations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preview_escalations_total",
		Help: "The total number of previews escalated to an asynchronous task.",
	})
	// EnqueueFailures tracks async tasks the backend refused to accept.
	EnqueueFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preview_enqueue_failures_total",
		Help: "The total number of failed async enqueue attempts.",
	})
	// TasksCompleted tracks async tasks that finished with data.
	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preview_tasks_completed_total",
		Help: "The total number of async tasks that completed successfully.",
	})
	// TasksFailed tracks async tasks that ended with an error message.
	TasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preview_tasks_failed_total",
		Help: "The total number of async tasks that reported a terminal error.",
	})
	// MessagesDiscarded tracks push messages dropped for task mismatch or
	// arrival after a terminal outcome.
	MessagesDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preview_messages_discarded_total",
		Help: "The total number of push messages discarded without effect.",
	})
	// Canceled tracks requests reset or superseded before a terminal outcome.
	Canceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "preview_requests_canceled_total",
		Help: "The total number of preview requests canceled while pending.",
	})
)
