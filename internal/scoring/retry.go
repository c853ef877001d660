package scoring

import (
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// Retry decision reasons, recorded verbatim in the decision for the audit
// trail
const (
	RetryReasonImageValid     = "image_valid"
	RetryReasonMaxAttempts    = "max_attempts_reached"
	RetryReasonDisabled       = "retries_disabled"
	RetryReasonCriticalScore  = "critical_corruption"
	RetryReasonDegradedMode   = "degraded_mode"
	RetryReasonRetryScheduled = "retry_scheduled"
)

// RetryDecisionEngine decides whether a re-capture is worth attempting
// after a failed evaluation. Rules are checked in order; the first match
// wins.
type RetryDecisionEngine struct {
	settings CorruptionSettings
}

// NewRetryDecisionEngine creates an engine bound to the given settings
func NewRetryDecisionEngine(settings CorruptionSettings) *RetryDecisionEngine {
	return &RetryDecisionEngine{settings: settings}
}

// Decide evaluates the retry policy for one capture attempt. currentAttempt
// is zero-based: the first capture of a frame is attempt 0.
func (e *RetryDecisionEngine) Decide(result models.ScoreCalculationResult, currentAttempt int, degradedMode bool) models.RetryDecision {
	decision := models.RetryDecision{
		RetryCount: currentAttempt,
		MaxRetries: e.settings.MaxRetries,
	}

	switch {
	case !result.IsCorrupted:
		decision.Reason = RetryReasonImageValid
	case currentAttempt >= e.settings.MaxRetries:
		decision.Reason = RetryReasonMaxAttempts
	case !e.settings.RetryEnabled:
		decision.Reason = RetryReasonDisabled
	case result.FinalScore >= e.settings.CriticalScoreThreshold:
		// A defect this severe is almost certainly real, not transient
		decision.Reason = RetryReasonCriticalScore
	case degradedMode:
		decision.Reason = RetryReasonDegradedMode
	default:
		decision.ShouldRetry = true
		decision.Reason = RetryReasonRetryScheduled
		decision.NextRetryDelayMs = e.delayForAttempt(currentAttempt).Milliseconds()
	}

	return decision
}

// delayForAttempt walks the configured backoff to the delay for the given
// zero-based attempt
func (e *RetryDecisionEngine) delayForAttempt(attempt int) time.Duration {
	var backoff retry.Backoff
	switch e.settings.RetryBackoff {
	case BackoffExponential:
		backoff = retry.NewExponential(e.settings.RetryDelay)
	default:
		backoff = retry.NewConstant(e.settings.RetryDelay)
	}
	backoff = retry.WithMaxRetries(uint64(e.settings.MaxRetries), backoff)

	delay := e.settings.RetryDelay
	for i := 0; i <= attempt; i++ {
		next, stop := backoff.Next()
		if stop {
			break
		}
		delay = next
	}
	return delay
}
