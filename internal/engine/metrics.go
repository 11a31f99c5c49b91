package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pointsEvaluated counts lattice points evaluated across all runs
	pointsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polyscan",
		Name:      "points_evaluated_total",
		Help:      "Total lattice points evaluated",
	})

	// evaluationErrors counts points skipped because the residual was not finite
	evaluationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polyscan",
		Name:      "evaluation_errors_total",
		Help:      "Total lattice points whose evaluation failed",
	})

	// solutionsFound counts distinct solutions across all records
	solutionsFound = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "polyscan",
		Name:      "solutions_found_total",
		Help:      "Total solutions found",
	})

	// runsFinished counts finished runs by terminal status
	runsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "polyscan",
		Name:      "runs_finished_total",
		Help:      "Total finished runs by status",
	}, []string{"status"})

	// targetScanDuration tracks the time to scan the lattice for one n
	targetScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "polyscan",
		Name:      "target_scan_duration_seconds",
		Help:      "Time to scan the lattice for one target value",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	})
)
