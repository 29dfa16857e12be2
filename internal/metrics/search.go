package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search, analysis and reindex Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodex",
			Name:      "search_requests_total",
			Help:      "Total number of product searches by mode and outcome",
		},
		[]string{"mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prodex",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	RankingCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "prodex",
			Name:      "ranking_candidates",
			Help:      "Number of candidates scored per ranking call",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		},
	)

	QueryAnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodex",
			Name:      "query_analysis_total",
			Help:      "Query analyses by source (ai, rules)",
		},
		[]string{"source"},
	)

	ReindexRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodex",
			Name:      "reindex_runs_total",
			Help:      "Reindex runs by final state",
		},
		[]string{"state"},
	)

	ReindexItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodex",
			Name:      "reindex_items_total",
			Help:      "Reindexed products by outcome (embedded, skipped, failed)",
		},
		[]string{"status"},
	)

	ReindexDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "prodex",
			Name:      "reindex_duration_seconds",
			Help:      "Reindex run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	EmbeddingCoverage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "prodex",
			Name:      "embedding_coverage_ratio",
			Help:      "Share of catalog products with a stored embedding",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search and reindex metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(RankingCandidates)
	prometheus.MustRegister(QueryAnalysisTotal)
	prometheus.MustRegister(ReindexRunsTotal)
	prometheus.MustRegister(ReindexItemsTotal)
	prometheus.MustRegister(ReindexDuration)
	prometheus.MustRegister(EmbeddingCoverage)
	searchMetricsRegistered = true
}
