// Package metrics holds the Prometheus collectors for the ingestion core.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion metrics.
var (
	IngestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quizdex",
			Name:      "ingest_records_total",
			Help:      "Total number of ingested records by outcome",
		},
		[]string{"status"}, // created / duplicate / failed
	)

	IngestBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quizdex",
			Name:      "ingest_batches_total",
			Help:      "Total number of ingestion calls by result",
		},
		[]string{"result"}, // ok / error
	)

	IngestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "quizdex",
			Name:      "ingest_duration_seconds",
			Help:      "Ingestion call duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	TagResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quizdex",
			Name:      "tag_resolutions_total",
			Help:      "Total number of tag resolutions by path taken",
		},
		[]string{"result"}, // hit / created / recovered
	)

	CandidateFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "quizdex",
			Name:      "candidate_fallbacks_total",
			Help:      "Duplicate checks that fell back to in-memory comparison",
		},
	)

	AuditEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "quizdex",
			Name:      "audit_events_total",
			Help:      "Total number of audit events emitted",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(IngestRecordsTotal)
	prometheus.MustRegister(IngestBatchesTotal)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(TagResolutionsTotal)
	prometheus.MustRegister(CandidateFallbacksTotal)
	prometheus.MustRegister(AuditEventsTotal)
}
