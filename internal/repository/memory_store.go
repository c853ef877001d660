package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// MemoryStore implements CorruptionRepository in process memory. It backs
// tests and ephemeral runs where no database path is configured; the mutex
// provides the same atomic read-modify-write the sqlite store gets from
// transactions.
type MemoryStore struct {
	mu     sync.Mutex
	states map[uuid.UUID]models.CameraCorruptionState
	logs   []models.CorruptionLogEntry
	nextID int64

	// injectable clock for tests
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[uuid.UUID]models.CameraCorruptionState),
		nextID: 1,
		now:    time.Now,
	}
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

// AppendLog stores one evaluation record
func (s *MemoryStore) AppendLog(ctx context.Context, entry *models.CorruptionLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	entry.ID = s.nextID
	s.nextID++
	s.logs = append(s.logs, *entry)
	return nil
}

// WindowStats counts attempts and dropped frames over the trailing window
func (s *MemoryStore) WindowStats(ctx context.Context, cameraID uuid.UUID, window time.Duration) (models.WindowStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	since := s.now().UTC().Add(-window)
	var stats models.WindowStats
	for _, entry := range s.logs {
		if entry.CameraID != cameraID || entry.CreatedAt.Before(since) {
			continue
		}
		stats.TotalAttempts++
		if dropped(entry.ActionTaken) {
			stats.Discarded++
		}
	}
	return stats, nil
}

// CameraStats returns the lifetime aggregates for one camera
func (s *MemoryStore) CameraStats(ctx context.Context, cameraID uuid.UUID) (models.CameraStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats models.CameraStats
	var scoreSum, timeSum float64
	for _, entry := range s.logs {
		if entry.CameraID != cameraID {
			continue
		}
		stats.TotalDetections++
		scoreSum += entry.CorruptionScore
		timeSum += entry.ProcessingTimeMs
		if dropped(entry.ActionTaken) {
			stats.ImagesDiscarded++
		}
	}
	if stats.TotalDetections > 0 {
		stats.AvgCorruptionScore = scoreSum / float64(stats.TotalDetections)
		stats.AvgProcessingTimeMs = timeSum / float64(stats.TotalDetections)
	}
	return stats, nil
}

// GetState returns the camera's state, zero-valued for an unseen camera
func (s *MemoryStore) GetState(ctx context.Context, cameraID uuid.UUID) (models.CameraCorruptionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[cameraID]
	if !ok {
		return models.CameraCorruptionState{CameraID: cameraID}, nil
	}
	return state, nil
}

// UpdateState applies mutate under the store lock
func (s *MemoryStore) UpdateState(ctx context.Context, cameraID uuid.UUID, mutate func(*models.CameraCorruptionState)) (models.CameraCorruptionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[cameraID]
	if !ok {
		state = models.CameraCorruptionState{CameraID: cameraID}
	}
	mutate(&state)
	state.UpdatedAt = s.now().UTC()
	s.states[cameraID] = state
	return state, nil
}

// Logs returns a copy of all stored entries, oldest first
func (s *MemoryStore) Logs() []models.CorruptionLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CorruptionLogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// dropped reports whether an action means the frame was not kept
func dropped(action models.ActionTaken) bool {
	return action == models.ActionDiscarded || action == models.ActionRetried
}
