package miner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"equix/pkg/equix"
)

var (
	attemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equix_attempts_total",
		Help: "Number of nonces a solve was attempted for",
	})
	buildFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equix_build_failures_total",
		Help: "Number of nonces rejected by the oracle builder",
	})
	solutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equix_solutions_total",
		Help: "Number of verified solutions found",
	})
	mismatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "equix_verification_mismatches_total",
		Help: "Candidates rejected by re-verification",
	}, []string{"result"})
	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "equix_entries_dropped_total",
		Help: "Entries discarded because a bucket was full",
	}, []string{"stage"})
	bestDifficulty = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "equix_best_difficulty",
		Help: "Highest difficulty found in the current mining session",
	})
	attemptSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "equix_attempt_duration_seconds",
		Help:    "Wall time of one build and solve",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
)

func observeStats(s equix.Stats) {
	solutionsTotal.Add(float64(s.Solutions))
	if s.PartialSumMismatches > 0 {
		mismatchesTotal.WithLabelValues(equix.ResultPartialSum.String()).Add(float64(s.PartialSumMismatches))
	}
	if s.FinalSumMismatches > 0 {
		mismatchesTotal.WithLabelValues(equix.ResultFinalSum.String()).Add(float64(s.FinalSumMismatches))
	}
	droppedTotal.WithLabelValues("stage1").Add(float64(s.Stage1Dropped))
	droppedTotal.WithLabelValues("stage2").Add(float64(s.Stage2Dropped))
	droppedTotal.WithLabelValues("stage3").Add(float64(s.Stage3Dropped))
	droppedTotal.WithLabelValues("fine").Add(float64(s.FineDropped))
}
