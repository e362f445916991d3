// Package metrics holds the Prometheus collectors for reconciliation runs.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	Namespace = "fieldprompts"

	MetricIngestRecords     = "ingest_records_total"
	MetricIngestRuns        = "ingest_runs_total"
	MetricIngestRunDuration = "ingest_run_duration_seconds"
	MetricHTTPRequests      = "http_requests_total"
	MetricHTTPDuration      = "http_request_duration_seconds"
)

// IngestRecords counts applied records by outcome: inserted,
// skipped_existing, failed or not_attempted.
var IngestRecords = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      MetricIngestRecords,
		Help:      "Records processed by ingest runs, by outcome.",
	},
	[]string{
		"outcome",
	},
)

var IngestRuns = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      MetricIngestRuns,
		Help:      "Ingest runs started.",
	},
)

var IngestRunDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      MetricIngestRunDuration,
		Help:      "Wall time of ingest runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	},
)

// HTTPRequests counts API requests by method and status code.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      MetricHTTPRequests,
		Help:      "HTTP requests served, by method and status.",
	},
	[]string{
		"method",
		"status",
	},
)

var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      MetricHTTPDuration,
		Help:      "HTTP request latency by method.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{
		"method",
	},
)

func init() {
	prometheus.MustRegister(IngestRecords)
	prometheus.MustRegister(IngestRuns)
	prometheus.MustRegister(IngestRunDuration)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
}
