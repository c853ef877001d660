package notify

import (
	"context"

	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/metrics"
	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// PrometheusNotifier mirrors events into the process metrics
type PrometheusNotifier struct{}

// NewPrometheusNotifier creates a metrics notifier
func NewPrometheusNotifier() Notifier {
	return &PrometheusNotifier{}
}

// NotifyEvaluation records the evaluation in the metrics
func (n *PrometheusNotifier) NotifyEvaluation(ctx context.Context, event EvaluationEvent) {
	metrics.EvaluationsTotal.WithLabelValues(string(event.ActionTaken)).Inc()
	metrics.CorruptionScore.Observe(event.CorruptionScore)
	if event.ActionTaken == models.ActionRetried {
		metrics.RetriesRequested.Inc()
	}
}

// NotifyDegradedTransition records the transition in the metrics
func (n *PrometheusNotifier) NotifyDegradedTransition(ctx context.Context, event DegradedTransitionEvent) {
	direction := "entered"
	if !event.DegradedModeActive {
		direction = "cleared"
	}
	metrics.DegradedTransitions.WithLabelValues(direction).Inc()
}

// Name returns the notifier name
func (n *PrometheusNotifier) Name() string {
	return "prometheus_notifier"
}
