package health

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/logger"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/notify"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/scoring"
	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// StateStore is the atomic read-modify-write contract for per-camera state.
// UpdateState must apply mutate inside a single transaction so overlapping
// evaluations for the same camera cannot lose updates.
type StateStore interface {
	GetState(ctx context.Context, cameraID uuid.UUID) (models.CameraCorruptionState, error)
	UpdateState(ctx context.Context, cameraID uuid.UUID, mutate func(*models.CameraCorruptionState)) (models.CameraCorruptionState, error)
}

// WindowStatsSource supplies discard statistics over a trailing time window
type WindowStatsSource interface {
	WindowStats(ctx context.Context, cameraID uuid.UUID, window time.Duration) (models.WindowStats, error)
}

// DegradedModeController is the per-camera state machine over
// {normal, degraded}. Entering degraded is automatic; leaving it only
// happens through an explicit Reset.
type DegradedModeController struct {
	settings  scoring.CorruptionSettings
	store     StateStore
	stats     WindowStatsSource
	publisher notify.Publisher

	// injectable clock for tests
	now func() time.Time
}

// NewDegradedModeController creates a controller over the given state store
func NewDegradedModeController(settings scoring.CorruptionSettings, store StateStore, stats WindowStatsSource, publisher notify.Publisher) *DegradedModeController {
	return &DegradedModeController{
		settings:  settings,
		store:     store,
		stats:     stats,
		publisher: publisher,
		now:       time.Now,
	}
}

// RecordSuccess resets the consecutive-failure counter after a frame was
// kept. It never clears the degraded flag; that takes an explicit Reset.
func (c *DegradedModeController) RecordSuccess(ctx context.Context, cameraID uuid.UUID) (models.CameraCorruptionState, error) {
	return c.store.UpdateState(ctx, cameraID, func(state *models.CameraCorruptionState) {
		state.ConsecutiveFailures = 0
	})
}

// RecordDiscard registers a discarded frame: increments the consecutive and
// lifetime counters and fires the normal→degraded transition when either
// the consecutive threshold or the windowed failure rate is met. Returns
// the updated state and whether a transition happened.
func (c *DegradedModeController) RecordDiscard(ctx context.Context, cameraID uuid.UUID) (models.CameraCorruptionState, bool, error) {
	windowTriggered, err := c.windowTriggered(ctx, cameraID)
	if err != nil {
		// A stats failure must not block the counter update; the
		// consecutive threshold still protects the camera
		logger.WithError(err).WithField("camera_id", cameraID).Warn("Window stats unavailable, using consecutive threshold only")
		windowTriggered = false
	}

	transitioned := false
	state, err := c.store.UpdateState(ctx, cameraID, func(state *models.CameraCorruptionState) {
		state.ConsecutiveFailures++
		state.LifetimeGlitchCount++

		if state.DegradedModeActive {
			return
		}
		if state.ConsecutiveFailures >= c.settings.DegradedConsecutiveThreshold || windowTriggered {
			now := c.now()
			state.DegradedModeActive = true
			state.LastDegradedAt = &now
			transitioned = true
		}
	})
	if err != nil {
		return state, false, err
	}

	if transitioned {
		logger.WithFields(logrus.Fields{
			"camera_id":            cameraID,
			"consecutive_failures": state.ConsecutiveFailures,
		}).Warn("Camera entered degraded mode")
		c.publisher.NotifyDegradedTransition(ctx, notify.DegradedTransitionEvent{
			CameraID:            cameraID,
			DegradedModeActive:  true,
			ConsecutiveFailures: state.ConsecutiveFailures,
			Timestamp:           c.now(),
		})
	}
	return state, transitioned, nil
}

// Reset is the explicit degraded→normal transition, operator- or
// job-triggered. It also zeroes the consecutive-failure counter.
func (c *DegradedModeController) Reset(ctx context.Context, cameraID uuid.UUID) (models.CameraCorruptionState, error) {
	wasDegraded := false
	state, err := c.store.UpdateState(ctx, cameraID, func(state *models.CameraCorruptionState) {
		wasDegraded = state.DegradedModeActive
		state.DegradedModeActive = false
		state.ConsecutiveFailures = 0
	})
	if err != nil {
		return state, err
	}

	if wasDegraded {
		logger.WithCamera(cameraID.String()).Info("Camera degraded mode reset")
		c.publisher.NotifyDegradedTransition(ctx, notify.DegradedTransitionEvent{
			CameraID:           cameraID,
			DegradedModeActive: false,
			Timestamp:          c.now(),
		})
	}
	return state, nil
}

// State returns the current per-camera state snapshot
func (c *DegradedModeController) State(ctx context.Context, cameraID uuid.UUID) (models.CameraCorruptionState, error) {
	return c.store.GetState(ctx, cameraID)
}

// windowTriggered checks the windowed failure-rate condition. The minimum
// sample size guards low-traffic cameras against false triggers.
func (c *DegradedModeController) windowTriggered(ctx context.Context, cameraID uuid.UUID) (bool, error) {
	stats, err := c.stats.WindowStats(ctx, cameraID, c.settings.DegradedTimeWindow)
	if err != nil {
		return false, err
	}
	if stats.TotalAttempts < c.settings.DegradedMinSampleSize {
		return false, nil
	}
	return stats.FailureRate() >= c.settings.DegradedFailurePercentage, nil
}
