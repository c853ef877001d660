package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// LoggingNotifier writes every event to the structured log
type LoggingNotifier struct {
	logger *logrus.Logger
}

// NewLoggingNotifier creates a logging notifier
func NewLoggingNotifier(logger *logrus.Logger) Notifier {
	return &LoggingNotifier{logger: logger}
}

// NotifyEvaluation logs an evaluation event
func (n *LoggingNotifier) NotifyEvaluation(ctx context.Context, event EvaluationEvent) {
	entry := n.logger.WithFields(logrus.Fields{
		"camera_id":          event.CameraID,
		"corruption_score":   event.CorruptionScore,
		"action_taken":       event.ActionTaken,
		"processing_time_ms": event.ProcessingTimeMs,
	})
	if len(event.FailedChecks) > 0 {
		entry = entry.WithField("failed_checks", event.FailedChecks)
	}

	switch event.ActionTaken {
	case models.ActionSaved:
		entry.Debug("Frame evaluated and saved")
	case models.ActionError, models.ActionSettingsError:
		entry.Error("Frame evaluation failed")
	default:
		entry.Info("Frame evaluated")
	}
}

// NotifyDegradedTransition logs a degraded-mode state change
func (n *LoggingNotifier) NotifyDegradedTransition(ctx context.Context, event DegradedTransitionEvent) {
	entry := n.logger.WithFields(logrus.Fields{
		"camera_id":            event.CameraID,
		"degraded_mode_active": event.DegradedModeActive,
	})
	if event.DegradedModeActive {
		entry.Warn("Camera degraded mode activated")
	} else {
		entry.Info("Camera degraded mode cleared")
	}
}

// Name returns the notifier name
func (n *LoggingNotifier) Name() string {
	return "logging_notifier"
}
