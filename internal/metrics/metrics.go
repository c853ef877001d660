package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationsTotal counts frame evaluations by resulting action
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corruption_evaluations_total",
			Help: "Total number of frame evaluations by action taken",
		},
		[]string{"action"},
	)

	// CorruptionScore tracks the distribution of final corruption scores
	CorruptionScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "corruption_final_score",
			Help:    "Distribution of final corruption scores",
			Buckets: []float64{5, 10, 25, 50, 75, 90, 100},
		},
	)

	// DetectionDuration tracks detector latency by stage
	DetectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "corruption_detection_duration_seconds",
			Help:    "Duration of detection stages in seconds",
			Buckets: []float64{0.001, 0.005, 0.02, 0.05, 0.1, 0.2, 0.5, 1},
		},
		[]string{"stage"},
	)

	// RetriesRequested counts re-capture requests issued by the retry policy
	RetriesRequested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "corruption_retries_requested_total",
			Help: "Total number of re-capture requests issued",
		},
	)

	// DegradedTransitions counts degraded-mode state changes by direction
	DegradedTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "corruption_degraded_transitions_total",
			Help: "Total number of degraded-mode transitions by direction",
		},
		[]string{"direction"},
	)
)
