package scoring

import (
	"math"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// ScoreCalculator combines detector outputs and camera-state penalties into
// one bounded score plus the binary decisions. It is a pure function of its
// inputs: no clock, no randomness, no side effects.
type ScoreCalculator struct {
	settings CorruptionSettings
}

// NewScoreCalculator creates a calculator bound to the given settings
func NewScoreCalculator(settings CorruptionSettings) *ScoreCalculator {
	return &ScoreCalculator{settings: settings}
}

// Calculate combines a fast score, an optional heavy score and the camera
// state into a final result. A non-finite input is an internal fault and
// resolves to the fail-safe corrupted result rather than a bad score.
func (c *ScoreCalculator) Calculate(fastScore float64, heavyScore *float64, healthDegraded bool, consecutiveFailures int) models.ScoreCalculationResult {
	if !isFinite(fastScore) || (heavyScore != nil && !isFinite(*heavyScore)) {
		return c.FailSafeResult("non_finite_detector_score")
	}

	details := models.CalculationDetails{
		FastScore:   fastScore,
		FastWeight:  c.settings.FastWeight,
		HeavyWeight: c.settings.HeavyWeight,
	}

	var base float64
	if heavyScore == nil {
		base = math.Min(fastScore, 100)
		details.FastWeight = 1.0
		details.HeavyWeight = 0
	} else {
		base = fastScore*c.settings.FastWeight + *heavyScore*c.settings.HeavyWeight
		details.HeavyScore = *heavyScore
		details.HeavyUsed = true
	}
	details.BaseScore = base

	if healthDegraded {
		details.DegradedPenalty = c.settings.HealthDegradedPenalty
	}
	if consecutiveFailures > 0 {
		details.FailurePenalty = math.Min(
			float64(consecutiveFailures)*c.settings.ConsecutiveFailurePenalty,
			c.settings.ConsecutiveFailurePenaltyCap,
		)
	}

	final := clampScore(base + details.DegradedPenalty + details.FailurePenalty)

	return models.ScoreCalculationResult{
		FinalScore:        final,
		IsCorrupted:       final >= c.settings.CorruptionScoreThreshold,
		ShouldAutoDiscard: final >= c.settings.AutoDiscardThreshold,
		QualityLevel:      c.qualityLevel(final),
		Details:           details,
	}
}

// FailSafeResult is the conservative result used when scoring itself
// failed: never silently accept a frame the calculator could not judge
func (c *ScoreCalculator) FailSafeResult(reason string) models.ScoreCalculationResult {
	return models.ScoreCalculationResult{
		FinalScore:        100,
		IsCorrupted:       true,
		ShouldAutoDiscard: true,
		QualityLevel:      models.QualitySeverelyCorrupted,
		Details: models.CalculationDetails{
			FailSafeTriggered: true,
			FailSafeReason:    reason,
		},
	}
}

// qualityLevel classifies a final score for reporting only
func (c *ScoreCalculator) qualityLevel(final float64) models.QualityLevel {
	switch {
	case final >= c.settings.AutoDiscardThreshold:
		return models.QualitySeverelyCorrupted
	case final >= c.settings.CorruptionScoreThreshold:
		return models.QualityCorrupted
	case final >= 25:
		return models.QualityQuestionable
	case final >= 10:
		return models.QualityGood
	default:
		return models.QualityExcellent
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
