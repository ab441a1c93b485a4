package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorfleet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sensorfleet_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Ingest metrics
	IngestReadingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorfleet_ingest_readings_total",
			Help: "Total number of readings received",
		},
		[]string{"status"}, // status: accepted, rejected, store_error
	)

	IngestEnqueueFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensorfleet_ingest_enqueue_failures_total",
			Help: "Readings stored durably but never enqueued for evaluation",
		},
	)

	// Queue metrics
	QueuePublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorfleet_queue_publish_total",
			Help: "Total number of messages pushed onto a named channel",
		},
		[]string{"channel", "status"},
	)

	// Worker metrics
	WorkerProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensorfleet_worker_processed_total",
			Help: "Total number of queue messages processed successfully",
		},
	)

	WorkerFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorfleet_worker_failed_total",
			Help: "Total number of queue messages dropped by the worker",
		},
		[]string{"reason"}, // reason: decode, store_transient, store_permanent, notify
	)

	WorkerRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensorfleet_worker_retries_total",
			Help: "Total number of transient store error retries",
		},
	)

	WorkerAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorfleet_worker_alerts_total",
			Help: "Total number of alerts generated and persisted",
		},
		[]string{"alert_type"},
	)

	WorkerDequeueDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sensorfleet_worker_dequeue_duration_seconds",
			Help:    "Time spent blocked waiting for a queue message",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10},
		},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensorfleet_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
