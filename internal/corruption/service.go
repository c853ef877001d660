package corruption

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/detector"
	apperrors "github.com/jordanlambrecht/timelapser-v4-sub005/internal/errors"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/health"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/logger"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/metrics"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/notify"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/repository"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/scoring"
	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// CaptureRequest identifies one captured frame to evaluate. Attempt is
// zero-based: the first capture of a frame is attempt 0.
type CaptureRequest struct {
	CameraID  uuid.UUID
	ImageID   *uuid.UUID
	ImagePath string
	Attempt   int
}

// EvaluationResult is the structured outcome of one evaluation. Every public
// entry point returns one of these; nothing raises past the service
// boundary.
type EvaluationResult struct {
	Action          models.ActionTaken
	Score           models.ScoreCalculationResult
	Fast            models.DetectionOutcome
	Heavy           *models.DetectionOutcome
	HeavySkipReason models.HeavySkipReason
	Retry           models.RetryDecision
	State           models.CameraCorruptionState
	LogEntry        *models.CorruptionLogEntry
}

// EvaluationService is the public surface of the corruption engine
type EvaluationService interface {
	// Evaluate runs the full fast → heavy → score → decide → persist →
	// notify pipeline for one frame. The returned error is non-nil only
	// when the context was cancelled before the persist-and-notify step;
	// every other failure resolves into the result itself.
	Evaluate(ctx context.Context, req CaptureRequest) (*EvaluationResult, error)

	// AssessHealth recomputes the camera's health view on demand
	AssessHealth(ctx context.Context, cameraID uuid.UUID) (models.HealthAssessment, error)

	// ResetDegradedMode is the explicit degraded→normal transition
	ResetDegradedMode(ctx context.Context, cameraID uuid.UUID) error

	// Lifecycle management
	Close() error
}

// evaluationService implements EvaluationService
type evaluationService struct {
	settings   SettingsProvider
	fast       detector.FastDetector
	heavy      detector.HeavyDetector
	repo       repository.CorruptionRepository
	controller *health.DegradedModeController
	scorer     *health.HealthScorer
	publisher  notify.Publisher
}

// NewEvaluationService wires the evaluation pipeline
func NewEvaluationService(
	settings SettingsProvider,
	fast detector.FastDetector,
	heavy detector.HeavyDetector,
	repo repository.CorruptionRepository,
	controller *health.DegradedModeController,
	scorer *health.HealthScorer,
	publisher notify.Publisher,
) EvaluationService {
	return &evaluationService{
		settings:   settings,
		fast:       fast,
		heavy:      heavy,
		repo:       repo,
		controller: controller,
		scorer:     scorer,
		publisher:  publisher,
	}
}

// Evaluate implements the single-frame pipeline. The capture worker calls
// this once per frame; a panic anywhere inside resolves to the fail-safe
// treat-as-corrupted result instead of crashing the pipeline.
func (s *evaluationService) Evaluate(ctx context.Context, req CaptureRequest) (result *EvaluationResult, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"camera_id": req.CameraID,
				"panic":     r,
			}).Error("Evaluation panicked, returning fail-safe result")
			result = s.failSafeResult(fmt.Sprintf("panic: %v", r))
			err = nil
			s.finish(context.WithoutCancel(ctx), req, result, start)
		}
	}()

	settings, sErr := s.settings.SettingsFor(ctx, req.CameraID)
	if sErr != nil {
		logger.WithError(sErr).WithField("camera_id", req.CameraID).Error("Invalid corruption settings")
		result = s.failSafeResult(sErr.Error())
		if apperrors.IsType(sErr, apperrors.FaultTypeSettings) {
			result.Action = models.ActionSettingsError
		}
		s.finish(ctx, req, result, start)
		return result, nil
	}

	state, stErr := s.repo.GetState(ctx, req.CameraID)
	if stErr != nil {
		// Evaluate with a blank snapshot rather than dropping the frame;
		// the state write path will surface a persistent store failure
		logger.WithError(stErr).WithField("camera_id", req.CameraID).Warn("Camera state unavailable, using blank snapshot")
		state = models.CameraCorruptionState{CameraID: req.CameraID}
	}

	fastStart := time.Now()
	fast := s.fast.Detect(req.ImagePath)
	metrics.DetectionDuration.WithLabelValues("fast").Observe(time.Since(fastStart).Seconds())

	var heavy *models.DetectionOutcome
	skipReason := models.HeavySkipNone
	switch {
	case !settings.HeavyDetectionEnabled:
		skipReason = models.HeavySkipDisabled
	case state.DegradedModeActive:
		// Expensive analysis on a feed already known unreliable buys no
		// decision value
		skipReason = models.HeavySkipDegraded
	default:
		heavyStart := time.Now()
		outcome := s.heavy.Detect(ctx, req.ImagePath)
		metrics.DetectionDuration.WithLabelValues("heavy").Observe(time.Since(heavyStart).Seconds())
		heavy = &outcome
	}

	calculator := scoring.NewScoreCalculator(settings)
	var heavyScore *float64
	if heavy != nil {
		heavyScore = &heavy.CorruptionScore
	}
	score := calculator.Calculate(fast.CorruptionScore, heavyScore, state.DegradedModeActive, state.ConsecutiveFailures)

	retryEngine := scoring.NewRetryDecisionEngine(settings)
	retry := retryEngine.Decide(score, req.Attempt, state.DegradedModeActive)

	action := models.ActionSaved
	if score.IsCorrupted {
		if retry.ShouldRetry {
			action = models.ActionRetried
		} else {
			action = models.ActionDiscarded
		}
	}

	result = &EvaluationResult{
		Action:          action,
		Score:           score,
		Fast:            fast,
		Heavy:           heavy,
		HeavySkipReason: skipReason,
		Retry:           retry,
		State:           state,
	}

	// The pipeline has no external side effects up to here; an abandoned
	// capture is safely discardable before the persist-and-notify step
	if cErr := ctx.Err(); cErr != nil {
		return result, cErr
	}

	s.finish(ctx, req, result, start)
	return result, nil
}

// AssessHealth recomputes the camera health view from current state and
// audit-log aggregates
func (s *evaluationService) AssessHealth(ctx context.Context, cameraID uuid.UUID) (models.HealthAssessment, error) {
	state, err := s.repo.GetState(ctx, cameraID)
	if err != nil {
		return models.HealthAssessment{}, fmt.Errorf("read camera state: %w", err)
	}
	stats, err := s.repo.CameraStats(ctx, cameraID)
	if err != nil {
		return models.HealthAssessment{}, fmt.Errorf("read camera stats: %w", err)
	}
	return s.scorer.Assess(state, stats, time.Now().UTC()), nil
}

// ResetDegradedMode clears the latched degraded flag for a camera
func (s *evaluationService) ResetDegradedMode(ctx context.Context, cameraID uuid.UUID) error {
	_, err := s.controller.Reset(ctx, cameraID)
	return err
}

// Close releases the heavy detector's worker pool
func (s *evaluationService) Close() error {
	return s.heavy.Close()
}

// finish is the single persist-and-notify step: append the audit record,
// apply the state update and emit the evaluation event
func (s *evaluationService) finish(ctx context.Context, req CaptureRequest, result *EvaluationResult, start time.Time) {
	processingMs := float64(time.Since(start).Microseconds()) / 1000.0

	entry := &models.CorruptionLogEntry{
		CameraID:         req.CameraID,
		CorruptionScore:  result.Score.FinalScore,
		FastScore:        result.Fast.CorruptionScore,
		ActionTaken:      result.Action,
		ProcessingTimeMs: processingMs,
		DetectionDetails: models.DetectionDetails{
			Fast:            result.Fast.Details,
			HeavySkipReason: result.HeavySkipReason,
			FailedChecks:    s.allFailedChecks(result),
		},
	}
	if result.Heavy != nil {
		entry.HeavyScore = &result.Heavy.CorruptionScore
		entry.DetectionDetails.Heavy = result.Heavy.Details
	}
	if result.Action == models.ActionSaved {
		entry.ImageID = req.ImageID
	}

	if err := s.repo.AppendLog(ctx, entry); err != nil {
		logger.WithError(err).WithField("camera_id", req.CameraID).Error("Failed to append corruption log")
	} else {
		result.LogEntry = entry
	}

	var state models.CameraCorruptionState
	var err error
	switch result.Action {
	case models.ActionSaved:
		state, err = s.controller.RecordSuccess(ctx, req.CameraID)
	case models.ActionDiscarded, models.ActionRetried, models.ActionError:
		state, _, err = s.controller.RecordDiscard(ctx, req.CameraID)
	default:
		// settings_error: no verdict about the frame, leave state alone
		state = result.State
	}
	if err != nil {
		logger.WithError(err).WithField("camera_id", req.CameraID).Error("Failed to update camera state")
	} else {
		result.State = state
	}

	s.publisher.NotifyEvaluation(ctx, notify.EvaluationEvent{
		CameraID:         req.CameraID,
		CorruptionScore:  result.Score.FinalScore,
		ActionTaken:      result.Action,
		ProcessingTimeMs: processingMs,
		FailedChecks:     entry.DetectionDetails.FailedChecks,
		Timestamp:        time.Now().UTC(),
	})
	metrics.DetectionDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
}

// failSafeResult is the conservative treat-as-corrupted result for faults
// at the evaluation boundary
func (s *evaluationService) failSafeResult(reason string) *EvaluationResult {
	calc := scoring.NewScoreCalculator(scoring.DefaultCorruptionSettings())
	return &EvaluationResult{
		Action: models.ActionError,
		Score:  calc.FailSafeResult(reason),
		Retry:  models.RetryDecision{Reason: reason},
	}
}

func (s *evaluationService) allFailedChecks(result *EvaluationResult) []string {
	checks := append([]string(nil), result.Fast.FailedChecks...)
	if result.Heavy != nil {
		checks = append(checks, result.Heavy.FailedChecks...)
	}
	return checks
}
