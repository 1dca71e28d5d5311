package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Terminal pipeline outcomes used as the status label on EntriesTotal.
const (
	OutcomePersisted       = "persisted"
	OutcomeInvalid         = "invalid"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
	OutcomeStoreError      = "store_error"
)

// IngestMetrics holds all Prometheus metrics for the logging API.
type IngestMetrics struct {
	EntriesTotal       *prometheus.CounterVec
	BytesTotal         prometheus.Counter
	TokenRequestsTotal prometheus.Counter
	StoreWriteSeconds  prometheus.Histogram
}

// NewIngestMetrics initializes and registers the Prometheus metrics on the
// default registry. Call it once per process.
func NewIngestMetrics() *IngestMetrics {
	return &IngestMetrics{
		EntriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logging_api",
			Subsystem: "ingest",
			Name:      "entries_total",
			Help:      "Total number of submitted log entries by terminal outcome.",
		}, []string{"status"}),
		BytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "logging_api",
			Subsystem: "ingest",
			Name:      "bytes_total",
			Help:      "Total number of submission body bytes accepted.",
		}),
		TokenRequestsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "logging_api",
			Subsystem: "auth",
			Name:      "token_requests_total",
			Help:      "Total number of token issuance requests.",
		}),
		StoreWriteSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "logging_api",
			Subsystem: "store",
			Name:      "write_seconds",
			Help:      "Latency of document store writes.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
