package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recordbay",
		Subsystem: "billing",
		Name:      "runs_total",
		Help:      "Per-customer billing run outcomes.",
	}, []string{"status"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "recordbay",
		Subsystem: "billing",
		Name:      "batch_duration_seconds",
		Help:      "Wall-clock duration of a whole billing batch.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	invoicesAssembled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "recordbay",
		Subsystem: "billing",
		Name:      "invoices_assembled_total",
		Help:      "Draft invoices produced by billing runs.",
	})
)
