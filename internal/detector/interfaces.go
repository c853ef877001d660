package detector

import (
	"context"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// FastDetector runs the cheap heuristic checks. It is stateless and never
// returns an error: an unreadable image resolves to a fail-safe outcome.
type FastDetector interface {
	Detect(imagePath string) models.DetectionOutcome
}

// HeavyDetector runs the expensive computer-vision checks. Callers bound it
// through the context; exceeding the bound yields a fail-safe outcome, not
// an error.
type HeavyDetector interface {
	Detect(ctx context.Context, imagePath string) models.DetectionOutcome

	// Lifecycle management
	Close() error
}
