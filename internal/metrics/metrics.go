// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitpulse_analysis_runs_total",
			Help: "Analysis runs by trigger and outcome",
		},
		[]string{"trigger", "outcome"}, // trigger: api, scheduler, cli
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habitpulse_analysis_duration_seconds",
			Help:    "Wall time of one analysis stage",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"stage"},
	)

	EngineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitpulse_engine_failures_total",
			Help: "Engine stages that failed and were treated as empty",
		},
		[]string{"engine"},
	)

	SkippedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitpulse_skipped_records_total",
			Help: "Activity records skipped during aggregation",
		},
		[]string{"reason"},
	)

	InsufficientPairs = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "habitpulse_correlation_insufficient_pairs_total",
			Help: "Category pairs omitted for insufficient data",
		},
	)

	SuggestionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitpulse_suggestions_created_total",
			Help: "Suggestions created by type",
		},
		[]string{"type"},
	)

	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitpulse_alerts_created_total",
			Help: "Risk alerts created by level",
		},
		[]string{"level"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habitpulse_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveStage records how long stage took since start.
func ObserveStage(stage string, start time.Time) {
	AnalysisDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
