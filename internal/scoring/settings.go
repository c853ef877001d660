package scoring

import (
	"fmt"
	"math"
	"time"
)

// Backoff strategies for re-capture scheduling
const (
	BackoffConstant    = "constant"
	BackoffExponential = "exponential"
)

// CorruptionSettings holds the global thresholds and toggles the evaluation
// pipeline reads. Per-camera overrides are applied through
// WithCameraOverrides before the settings reach any decision logic.
type CorruptionSettings struct {
	// Score thresholds
	CorruptionScoreThreshold float64
	AutoDiscardThreshold     float64
	CriticalScoreThreshold   float64

	// Score combination weights
	FastWeight  float64
	HeavyWeight float64

	// Camera-state penalties
	HealthDegradedPenalty        float64
	ConsecutiveFailurePenalty    float64
	ConsecutiveFailurePenaltyCap float64

	// Feature toggles
	HeavyDetectionEnabled bool
	RetryEnabled          bool

	// Retry policy
	MaxRetries   int
	RetryDelay   time.Duration
	RetryBackoff string

	// Degraded-mode transitions
	DegradedConsecutiveThreshold int
	DegradedTimeWindow           time.Duration
	DegradedFailurePercentage    float64
	DegradedMinSampleSize        int

	// Heavy analysis bound per frame
	HeavyDetectionTimeout time.Duration
}

// DefaultCorruptionSettings returns the documented defaults
func DefaultCorruptionSettings() CorruptionSettings {
	return CorruptionSettings{
		CorruptionScoreThreshold:     50.0,
		AutoDiscardThreshold:         75.0,
		CriticalScoreThreshold:       90.0,
		FastWeight:                   0.7,
		HeavyWeight:                  0.3,
		HealthDegradedPenalty:        10.0,
		ConsecutiveFailurePenalty:    5.0,
		ConsecutiveFailurePenaltyCap: 20.0,
		HeavyDetectionEnabled:        true,
		RetryEnabled:                 true,
		MaxRetries:                   3,
		RetryDelay:                   time.Second,
		RetryBackoff:                 BackoffConstant,
		DegradedConsecutiveThreshold: 10,
		DegradedTimeWindow:           30 * time.Minute,
		DegradedFailurePercentage:    0.5,
		DegradedMinSampleSize:        20,
		HeavyDetectionTimeout:        200 * time.Millisecond,
	}
}

// Validate checks the invariants the decision logic depends on
func (s CorruptionSettings) Validate() error {
	if s.CorruptionScoreThreshold < 0 || s.CorruptionScoreThreshold > 100 {
		return fmt.Errorf("corruption_score_threshold must be in [0,100] (got %g)", s.CorruptionScoreThreshold)
	}
	if s.AutoDiscardThreshold < 0 || s.AutoDiscardThreshold > 100 {
		return fmt.Errorf("auto_discard_threshold must be in [0,100] (got %g)", s.AutoDiscardThreshold)
	}
	if s.AutoDiscardThreshold < s.CorruptionScoreThreshold {
		return fmt.Errorf("auto_discard_threshold (%g) must be >= corruption_score_threshold (%g)",
			s.AutoDiscardThreshold, s.CorruptionScoreThreshold)
	}
	if s.CriticalScoreThreshold < s.AutoDiscardThreshold {
		return fmt.Errorf("critical_score_threshold (%g) must be >= auto_discard_threshold (%g)",
			s.CriticalScoreThreshold, s.AutoDiscardThreshold)
	}
	if s.FastWeight < 0 || s.HeavyWeight < 0 {
		return fmt.Errorf("detector weights must be >= 0 (got fast=%g, heavy=%g)", s.FastWeight, s.HeavyWeight)
	}
	if math.Abs(s.FastWeight+s.HeavyWeight-1.0) > 1e-9 {
		return fmt.Errorf("detector weights must sum to 1 (got fast=%g, heavy=%g)", s.FastWeight, s.HeavyWeight)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0 (got %d)", s.MaxRetries)
	}
	if s.RetryBackoff != BackoffConstant && s.RetryBackoff != BackoffExponential {
		return fmt.Errorf("retry_backoff must be %q or %q (got %q)", BackoffConstant, BackoffExponential, s.RetryBackoff)
	}
	if s.DegradedConsecutiveThreshold < 1 {
		return fmt.Errorf("degraded_mode_consecutive_threshold must be >= 1 (got %d)", s.DegradedConsecutiveThreshold)
	}
	if s.DegradedFailurePercentage <= 0 || s.DegradedFailurePercentage > 1 {
		return fmt.Errorf("degraded_mode_failure_percentage must be in (0,1] (got %g)", s.DegradedFailurePercentage)
	}
	if s.DegradedMinSampleSize < 1 {
		return fmt.Errorf("degraded_mode_min_sample_size must be >= 1 (got %d)", s.DegradedMinSampleSize)
	}
	return nil
}

// CameraCorruptionSettings carries the per-camera overrides of the global
// settings. Nil fields fall through to the global value.
type CameraCorruptionSettings struct {
	CorruptionScoreThreshold *float64
	AutoDiscardThreshold     *float64
	HeavyDetectionEnabled    *bool
	RetryEnabled             *bool
}

// WithCameraOverrides returns a copy of the global settings with the
// camera's overrides applied
func (s CorruptionSettings) WithCameraOverrides(overrides *CameraCorruptionSettings) CorruptionSettings {
	if overrides == nil {
		return s
	}
	merged := s
	if overrides.CorruptionScoreThreshold != nil {
		merged.CorruptionScoreThreshold = *overrides.CorruptionScoreThreshold
	}
	if overrides.AutoDiscardThreshold != nil {
		merged.AutoDiscardThreshold = *overrides.AutoDiscardThreshold
	}
	if overrides.HeavyDetectionEnabled != nil {
		merged.HeavyDetectionEnabled = *overrides.HeavyDetectionEnabled
	}
	if overrides.RetryEnabled != nil {
		merged.RetryEnabled = *overrides.RetryEnabled
	}
	return merged
}
