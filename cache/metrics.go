package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Self-instrumentation of the aggregation window.
var (
	samplesAccumulated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bioyino",
		Subsystem: "cache",
		Name:      "samples_accumulated_total",
		Help:      "Raw samples folded into the aggregation window.",
	})

	mergeRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bioyino",
		Subsystem: "cache",
		Name:      "merge_rejections_total",
		Help:      "Samples dropped because their kind did not match the existing aggregate.",
	})

	flushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bioyino",
		Subsystem: "cache",
		Name:      "flushes_total",
		Help:      "Aggregation window flushes.",
	})

	flushedMetrics = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bioyino",
		Subsystem: "cache",
		Name:      "flushed_metrics_total",
		Help:      "Aggregates handed to the flush consumer.",
	})
)
