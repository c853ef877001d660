package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionTaken records how an evaluation resolved
type ActionTaken string

const (
	// ActionSaved means the frame passed and was kept
	ActionSaved ActionTaken = "saved"
	// ActionDiscarded means the frame was dropped without a retry
	ActionDiscarded ActionTaken = "discarded"
	// ActionRetried means the frame was dropped and a re-capture was requested
	ActionRetried ActionTaken = "retried"
	// ActionError means scoring itself failed and the frame was treated as corrupted
	ActionError ActionTaken = "error"
	// ActionSettingsError means the evaluation could not run due to invalid configuration
	ActionSettingsError ActionTaken = "settings_error"
)

// Check names shared between the detectors and the audit log
const (
	CheckImageLoad       = "image_load"
	CheckFileSize        = "file_size"
	CheckDimensions      = "dimensions"
	CheckBrightness      = "brightness"
	CheckUniformity      = "uniformity"
	CheckDistinctValues  = "distinct_values"
	CheckBlur            = "blur"
	CheckEdgeDensity     = "edge_density"
	CheckColorVariance   = "color_variance"
	CheckHistogramPeaks  = "histogram_peaks"
	CheckSaturation      = "saturation"
	CheckTexture         = "texture"
	CheckAnalysisTimeout = "analysis_timeout"
)

// CheckDetail is the per-check breakdown inside a DetectionOutcome. Fields
// the decision logic reads are typed; Extra holds only the free-form numeric
// breakdown for diagnostics.
type CheckDetail struct {
	Valid   bool               `json:"valid"`
	Penalty float64            `json:"penalty"`
	Metric  float64            `json:"metric"`
	Extra   map[string]float64 `json:"extra,omitempty"`
}

// DetectionOutcome is the immutable result of one detector pass. The
// corruption score accumulates penalty points from 0 (clean) and is capped
// at 100 (maximally corrupted); an undecodable image scores 100 with a
// single image_load failed check.
type DetectionOutcome struct {
	CorruptionScore  float64                `json:"corruption_score"`
	FailedChecks     []string               `json:"failed_checks"`
	Details          map[string]CheckDetail `json:"details"`
	ProcessingTimeMs float64                `json:"processing_time_ms"`
}

// Failed reports whether any check failed
func (o DetectionOutcome) Failed() bool {
	return len(o.FailedChecks) > 0
}

// QualityLevel classifies a final score for reporting; it plays no part in
// the save/discard decision
type QualityLevel string

const (
	QualitySeverelyCorrupted QualityLevel = "severely_corrupted"
	QualityCorrupted         QualityLevel = "corrupted"
	QualityQuestionable      QualityLevel = "questionable"
	QualityGood              QualityLevel = "good"
	QualityExcellent         QualityLevel = "excellent"
)

// CalculationDetails is the breakdown of how a final score was assembled
type CalculationDetails struct {
	BaseScore         float64 `json:"base_score"`
	FastScore         float64 `json:"fast_score"`
	HeavyScore        float64 `json:"heavy_score,omitempty"`
	FastWeight        float64 `json:"fast_weight"`
	HeavyWeight       float64 `json:"heavy_weight"`
	HeavyUsed         bool    `json:"heavy_used"`
	DegradedPenalty   float64 `json:"degraded_penalty"`
	FailurePenalty    float64 `json:"failure_penalty"`
	FailSafeTriggered bool    `json:"fail_safe_triggered,omitempty"`
	FailSafeReason    string  `json:"fail_safe_reason,omitempty"`
}

// ScoreCalculationResult is the pure output of the score calculator,
// fully reproducible from its inputs
type ScoreCalculationResult struct {
	FinalScore        float64            `json:"final_score"`
	IsCorrupted       bool               `json:"is_corrupted"`
	ShouldAutoDiscard bool               `json:"should_auto_discard"`
	QualityLevel      QualityLevel       `json:"quality_level"`
	Details           CalculationDetails `json:"details"`
}

// RetryDecision is the ephemeral outcome of the retry policy for one
// capture attempt
type RetryDecision struct {
	ShouldRetry      bool   `json:"should_retry"`
	Reason           string `json:"reason"`
	RetryCount       int    `json:"retry_count"`
	MaxRetries       int    `json:"max_retries"`
	NextRetryDelayMs int64  `json:"next_retry_delay_ms,omitempty"`
}

// HeavySkipReason records why heavy detection did not run for an evaluation
type HeavySkipReason string

const (
	HeavySkipNone     HeavySkipReason = ""
	HeavySkipDisabled HeavySkipReason = "disabled"
	HeavySkipDegraded HeavySkipReason = "degraded_mode"
)

// CameraCorruptionState is the per-camera long-lived state mutated on every
// evaluation. Updates must go through an atomic read-modify-write; the
// degraded flag is latched and only cleared by an explicit reset.
type CameraCorruptionState struct {
	CameraID            uuid.UUID  `json:"camera_id"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	DegradedModeActive  bool       `json:"degraded_mode_active"`
	LastDegradedAt      *time.Time `json:"last_degraded_at,omitempty"`
	LifetimeGlitchCount int64      `json:"lifetime_glitch_count"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// DetectionDetails is the persisted per-evaluation breakdown
type DetectionDetails struct {
	Fast            map[string]CheckDetail `json:"fast"`
	Heavy           map[string]CheckDetail `json:"heavy,omitempty"`
	HeavySkipReason HeavySkipReason        `json:"heavy_skip_reason,omitempty"`
	FailedChecks    []string               `json:"failed_checks,omitempty"`
}

// CorruptionLogEntry is an immutable append-only audit record of one
// evaluation. ImageID is nil when the frame was discarded before it was
// ever persisted as an image.
type CorruptionLogEntry struct {
	ID               int64            `json:"id"`
	CameraID         uuid.UUID        `json:"camera_id"`
	ImageID          *uuid.UUID       `json:"image_id,omitempty"`
	CorruptionScore  float64          `json:"corruption_score"`
	FastScore        float64          `json:"fast_score"`
	HeavyScore       *float64         `json:"heavy_score,omitempty"`
	DetectionDetails DetectionDetails `json:"detection_details"`
	ActionTaken      ActionTaken      `json:"action_taken"`
	ProcessingTimeMs float64          `json:"processing_time_ms"`
	CreatedAt        time.Time        `json:"created_at"`
}

// WindowStats summarizes capture attempts inside a degraded-mode time window
type WindowStats struct {
	TotalAttempts int `json:"total_attempts"`
	Discarded     int `json:"discarded"`
}

// FailureRate returns the discard ratio over the window, or 0 when empty
func (w WindowStats) FailureRate() float64 {
	if w.TotalAttempts == 0 {
		return 0
	}
	return float64(w.Discarded) / float64(w.TotalAttempts)
}

// CameraStats is the aggregated audit-log snapshot consumed by the health
// scorer
type CameraStats struct {
	TotalDetections     int64   `json:"total_detections"`
	ImagesDiscarded     int64   `json:"images_discarded"`
	AvgCorruptionScore  float64 `json:"avg_corruption_score"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
}
