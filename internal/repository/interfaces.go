package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// LogRepository is the append-only audit trail of evaluations plus the
// history-based queries derived from it
type LogRepository interface {
	// AppendLog stores one evaluation record and fills in its ID and
	// CreatedAt. Entries are never updated afterwards.
	AppendLog(ctx context.Context, entry *models.CorruptionLogEntry) error

	// WindowStats returns attempt and discard counts over the trailing
	// window for degraded-mode evaluation
	WindowStats(ctx context.Context, cameraID uuid.UUID, window time.Duration) (models.WindowStats, error)

	// CameraStats returns the lifetime aggregates the health scorer reads
	CameraStats(ctx context.Context, cameraID uuid.UUID) (models.CameraStats, error)
}

// StateRepository owns the per-camera corruption state. UpdateState applies
// mutate atomically (single transaction or equivalent) so overlapping
// evaluations for the same camera cannot lose updates; a camera's row is
// created implicitly on first use.
type StateRepository interface {
	GetState(ctx context.Context, cameraID uuid.UUID) (models.CameraCorruptionState, error)
	UpdateState(ctx context.Context, cameraID uuid.UUID, mutate func(*models.CameraCorruptionState)) (models.CameraCorruptionState, error)
}

// CorruptionRepository is the full persistence surface of the engine
type CorruptionRepository interface {
	LogRepository
	StateRepository

	// Lifecycle management
	Close() error
}
