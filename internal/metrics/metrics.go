package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gravity_tasks_submitted_total",
		Help: "Total number of download tasks submitted",
	})

	TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gravity_tasks_completed_total",
		Help: "Total number of download tasks completed",
	})

	TasksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gravity_tasks_failed_total",
		Help: "Total number of download tasks that failed permanently",
	})

	TaskRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gravity_task_retries_total",
		Help: "Total number of task retry re-enqueues",
	})

	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gravity_download_duration_seconds",
		Help:    "Download duration in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	DownloadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gravity_download_bytes_total",
		Help: "Total bytes downloaded",
	})

	StoreRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gravity_store_retries_total",
		Help: "Total number of internal task store command retries",
	})

	FilesCleaned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gravity_files_cleaned_total",
		Help: "Total number of expired files removed by the janitor",
	})
)
