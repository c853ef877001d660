package detector

import (
	"time"

	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/logger"
	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// outcomeBuilder accumulates per-check results into a DetectionOutcome.
// Checks are recorded in evaluation order so failed_checks stays stable
// between runs on the same image.
type outcomeBuilder struct {
	details      map[string]models.CheckDetail
	failedChecks []string
	totalPenalty float64
}

func newOutcomeBuilder() *outcomeBuilder {
	return &outcomeBuilder{
		details: make(map[string]models.CheckDetail),
	}
}

// record registers one check result; penalty is only applied when the check
// failed
func (b *outcomeBuilder) record(name string, valid bool, penalty, metric float64, extra map[string]float64) {
	detail := models.CheckDetail{
		Valid:  valid,
		Metric: metric,
		Extra:  extra,
	}
	if !valid {
		detail.Penalty = penalty
		b.totalPenalty += penalty
		b.failedChecks = append(b.failedChecks, name)
	}
	b.details[name] = detail
}

// build finalizes the outcome, capping the corruption score at 100
func (b *outcomeBuilder) build(start time.Time) models.DetectionOutcome {
	score := b.totalPenalty
	if score > 100 {
		score = 100
	}
	return models.DetectionOutcome{
		CorruptionScore:  score,
		FailedChecks:     b.failedChecks,
		Details:          b.details,
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
	}
}

// fatalOutcome is the fail-safe result for an image that could not be
// analyzed at all: maximally corrupted, single synthetic failed check,
// never an error to the caller
func fatalOutcome(check string, start time.Time, err error) models.DetectionOutcome {
	if err != nil {
		logger.WithError(err).WithField("check", check).Debug("Image analysis failed, returning fail-safe outcome")
	}
	return models.DetectionOutcome{
		CorruptionScore: 100,
		FailedChecks:    []string{check},
		Details: map[string]models.CheckDetail{
			check: {Valid: false, Penalty: 100},
		},
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000.0,
	}
}
