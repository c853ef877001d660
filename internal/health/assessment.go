package health

import (
	"math"
	"time"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// HealthThresholds defines the penalties and cut-offs for the health score
type HealthThresholds struct {
	DegradedModePenalty float64

	HighConsecutiveFailures   int
	HighConsecutivePenalty    float64
	MediumConsecutiveFailures int
	MediumConsecutivePenalty  float64

	PoorAvgScore         float64
	PoorScorePenaltyRate float64
	PoorScorePenaltyCap  float64
	AverageAvgScore      float64
	AverageScorePenalty  float64

	MinSampleForRatio  int64
	DiscardRatioFloor  float64
	DiscardPenaltyRate float64
	DiscardPenaltyCap  float64

	SlowProcessingMs     float64
	SlowPenaltyPerTwenty float64
	SlowPenaltyCap       float64
}

// DefaultHealthThresholds returns the default health-scoring thresholds
func DefaultHealthThresholds() HealthThresholds {
	return HealthThresholds{
		DegradedModePenalty:       30.0,
		HighConsecutiveFailures:   10,
		HighConsecutivePenalty:    25.0,
		MediumConsecutiveFailures: 5,
		MediumConsecutivePenalty:  10.0,
		PoorAvgScore:              60.0,
		PoorScorePenaltyRate:      0.5,
		PoorScorePenaltyCap:       20.0,
		AverageAvgScore:           40.0,
		AverageScorePenalty:       5.0,
		MinSampleForRatio:         10,
		DiscardRatioFloor:         0.30,
		DiscardPenaltyRate:        50.0,
		DiscardPenaltyCap:         15.0,
		SlowProcessingMs:          100.0,
		SlowPenaltyPerTwenty:      1.0,
		SlowPenaltyCap:            5.0,
	}
}

// HealthScorer turns per-camera state and aggregated audit statistics into
// a 0-100 health score, a status bucket and deterministic issue and
// recommendation lists. It is read-only; assessments are views, always
// recomputable from their inputs.
type HealthScorer struct {
	thresholds HealthThresholds
}

// NewHealthScorer creates a scorer with default thresholds
func NewHealthScorer() *HealthScorer {
	return NewHealthScorerWithThresholds(DefaultHealthThresholds())
}

// NewHealthScorerWithThresholds creates a scorer with custom thresholds
func NewHealthScorerWithThresholds(thresholds HealthThresholds) *HealthScorer {
	return &HealthScorer{thresholds: thresholds}
}

// Assess computes the health assessment for one camera
func (s *HealthScorer) Assess(state models.CameraCorruptionState, stats models.CameraStats, now time.Time) models.HealthAssessment {
	t := s.thresholds
	score := 100.0
	var issues []string
	var recommendations []string

	if state.DegradedModeActive {
		score -= t.DegradedModePenalty
		issues = append(issues, "Camera is in degraded mode; heavy analysis and retries are suspended.")
		recommendations = append(recommendations, "Check the camera feed and reset degraded mode once it is stable.")
	}

	switch {
	case state.ConsecutiveFailures >= t.HighConsecutiveFailures:
		score -= t.HighConsecutivePenalty
		issues = append(issues, "Sustained run of consecutive capture failures.")
		recommendations = append(recommendations, "Inspect camera connectivity and lens; the feed is failing continuously.")
	case state.ConsecutiveFailures >= t.MediumConsecutiveFailures:
		score -= t.MediumConsecutivePenalty
		issues = append(issues, "Several consecutive capture failures.")
		recommendations = append(recommendations, "Watch this camera; failures are starting to accumulate.")
	}

	switch {
	case stats.AvgCorruptionScore >= t.PoorAvgScore:
		score -= math.Min((stats.AvgCorruptionScore-t.PoorAvgScore)*t.PoorScorePenaltyRate, t.PoorScorePenaltyCap)
		issues = append(issues, "Average corruption score is poor.")
		recommendations = append(recommendations, "Review recent frames; image quality is consistently bad.")
	case stats.AvgCorruptionScore >= t.AverageAvgScore:
		score -= t.AverageScorePenalty
		issues = append(issues, "Average corruption score is elevated.")
		recommendations = append(recommendations, "Image quality is drifting; consider cleaning or refocusing the camera.")
	}

	discardRatio := 0.0
	if stats.TotalDetections > 0 {
		discardRatio = float64(stats.ImagesDiscarded) / float64(stats.TotalDetections)
	}
	if stats.TotalDetections > t.MinSampleForRatio && discardRatio > t.DiscardRatioFloor {
		score -= math.Min((discardRatio-t.DiscardRatioFloor)*t.DiscardPenaltyRate, t.DiscardPenaltyCap)
		issues = append(issues, "High fraction of frames discarded.")
		recommendations = append(recommendations, "Discard rate is above 30%; verify lighting and camera placement.")
	}

	if stats.AvgProcessingTimeMs > t.SlowProcessingMs {
		score -= math.Min((stats.AvgProcessingTimeMs-t.SlowProcessingMs)/20.0*t.SlowPenaltyPerTwenty, t.SlowPenaltyCap)
		issues = append(issues, "Frame analysis is slower than expected.")
		recommendations = append(recommendations, "Evaluation latency is high; check host load or reduce heavy-detection frequency.")
	}

	if score < 0 {
		score = 0
	}

	return models.HealthAssessment{
		CameraID:        state.CameraID,
		HealthScore:     score,
		Status:          statusFor(score),
		Issues:          issues,
		Recommendations: recommendations,
		Metrics: models.HealthMetrics{
			ConsecutiveFailures: state.ConsecutiveFailures,
			DegradedModeActive:  state.DegradedModeActive,
			LifetimeGlitchCount: state.LifetimeGlitchCount,
			TotalDetections:     stats.TotalDetections,
			ImagesDiscarded:     stats.ImagesDiscarded,
			DiscardRatio:        discardRatio,
			AvgCorruptionScore:  stats.AvgCorruptionScore,
			AvgProcessingTimeMs: stats.AvgProcessingTimeMs,
		},
		AssessedAt: now,
	}
}

// statusFor buckets a health score for monitoring
func statusFor(score float64) models.HealthStatus {
	switch {
	case score >= 90:
		return models.HealthStatusExcellent
	case score >= 80:
		return models.HealthStatusHealthy
	case score >= 60:
		return models.HealthStatusMonitoring
	case score >= 40:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusCritical
	}
}
