// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "homemetrics"

var (
	// MessagesProcessedTotal counts processed mailbox messages by
	// processor name and outcome.
	MessagesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "messages_processed_total",
			Help:      "Total number of mailbox messages processed, by processor and status",
		},
		[]string{"processor", "status"},
	)

	// AttachmentsRecoveredTotal counts attachments recovered from raw
	// messages, labelled by the scan strategy that found them.
	AttachmentsRecoveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "attachments_recovered_total",
			Help:      "Total number of attachments recovered from raw messages, by scan strategy",
		},
		[]string{"strategy"},
	)

	// DecodeTotal counts decoded content blocks by detected transfer
	// encoding.
	DecodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "content_decode_total",
			Help:      "Total number of content blocks decoded, by detected encoding",
		},
		[]string{"encoding"},
	)

	// ReadingsSavedTotal counts persisted readings by kind.
	ReadingsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "readings_saved_total",
			Help:      "Total number of readings persisted, by kind",
		},
		[]string{"kind"},
	)

	// ExtractionFailuresTotal counts failed metric extractions.
	ExtractionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "extraction_failures_total",
			Help:      "Total number of failed metric extractions, by kind and reason",
		},
		[]string{"kind", "reason"},
	)
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)
