package cluster

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// roundsTotal counts neighbor searches by where they ran
	roundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "true_barcodes_cluster_rounds_total",
		Help: "Pivot rounds by dispatch target",
	}, []string{"dispatch"}) // "pool", "inline" or "sequential"

	clustersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "true_barcodes_clusters_total",
		Help: "Clusters emitted",
	})

	distinctTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "true_barcodes_distinct_candidates_total",
		Help: "Distinct candidates partitioned",
	})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "true_barcodes_cluster_build_duration_seconds",
		Help:    "Wall time of one clustering run",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
	})
)
