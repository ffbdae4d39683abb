package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topograph_transactions_total",
		Help: "Transactions by outcome: committed, rejected, or failed",
	}, []string{"outcome"})

	schemaChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "topograph_schema_changes_total",
		Help: "Schema changes by kind: installed, altered, or idents",
	}, []string{"kind"})

	writeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "topograph_write_duration_seconds",
		Help:    "Time spent writing transactions",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
)
