package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS camera_corruption_state (
	camera_id             TEXT PRIMARY KEY,
	consecutive_failures  INTEGER NOT NULL DEFAULT 0,
	degraded_mode_active  INTEGER NOT NULL DEFAULT 0,
	last_degraded_at      TIMESTAMP,
	lifetime_glitch_count INTEGER NOT NULL DEFAULT 0,
	updated_at            TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS corruption_logs (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	camera_id          TEXT NOT NULL,
	image_id           TEXT,
	corruption_score   REAL NOT NULL,
	fast_score         REAL NOT NULL,
	heavy_score        REAL,
	detection_details  TEXT NOT NULL,
	action_taken       TEXT NOT NULL,
	processing_time_ms REAL NOT NULL,
	created_at         TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_corruption_logs_camera_created
	ON corruption_logs (camera_id, created_at);
`

// SQLiteStore implements CorruptionRepository on a local SQLite database.
// State updates run inside immediate transactions, which gives the atomic
// read-modify-write the per-camera state requires.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1) // sqlite allows one writer; serialize through the pool
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AppendLog stores one evaluation record
func (s *SQLiteStore) AppendLog(ctx context.Context, entry *models.CorruptionLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	details, err := json.Marshal(entry.DetectionDetails)
	if err != nil {
		return fmt.Errorf("marshal detection details: %w", err)
	}

	var imageID interface{}
	if entry.ImageID != nil {
		imageID = entry.ImageID.String()
	}
	var heavyScore interface{}
	if entry.HeavyScore != nil {
		heavyScore = *entry.HeavyScore
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO corruption_logs
			(camera_id, image_id, corruption_score, fast_score, heavy_score,
			 detection_details, action_taken, processing_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.CameraID.String(), imageID, entry.CorruptionScore, entry.FastScore,
		heavyScore, string(details), string(entry.ActionTaken),
		entry.ProcessingTimeMs, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append corruption log: %w", err)
	}
	entry.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read log id: %w", err)
	}
	return nil
}

// WindowStats counts attempts and dropped frames (discarded or retried)
// over the trailing window
func (s *SQLiteStore) WindowStats(ctx context.Context, cameraID uuid.UUID, window time.Duration) (models.WindowStats, error) {
	since := time.Now().UTC().Add(-window)
	var stats models.WindowStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN action_taken IN ('discarded', 'retried') THEN 1 ELSE 0 END), 0)
		FROM corruption_logs
		WHERE camera_id = ? AND created_at >= ?`,
		cameraID.String(), since,
	).Scan(&stats.TotalAttempts, &stats.Discarded)
	if err != nil {
		return models.WindowStats{}, fmt.Errorf("query window stats: %w", err)
	}
	return stats, nil
}

// CameraStats returns the lifetime aggregates for one camera
func (s *SQLiteStore) CameraStats(ctx context.Context, cameraID uuid.UUID) (models.CameraStats, error) {
	var stats models.CameraStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN action_taken IN ('discarded', 'retried') THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(corruption_score), 0),
		       COALESCE(AVG(processing_time_ms), 0)
		FROM corruption_logs
		WHERE camera_id = ?`,
		cameraID.String(),
	).Scan(&stats.TotalDetections, &stats.ImagesDiscarded, &stats.AvgCorruptionScore, &stats.AvgProcessingTimeMs)
	if err != nil {
		return models.CameraStats{}, fmt.Errorf("query camera stats: %w", err)
	}
	return stats, nil
}

// GetState returns the camera's state, or a zero-valued state for a camera
// not seen before
func (s *SQLiteStore) GetState(ctx context.Context, cameraID uuid.UUID) (models.CameraCorruptionState, error) {
	state, err := scanState(s.db.QueryRowContext(ctx, `
		SELECT consecutive_failures, degraded_mode_active, last_degraded_at,
		       lifetime_glitch_count, updated_at
		FROM camera_corruption_state WHERE camera_id = ?`,
		cameraID.String(),
	), cameraID)
	if err == sql.ErrNoRows {
		return models.CameraCorruptionState{CameraID: cameraID}, nil
	}
	if err != nil {
		return models.CameraCorruptionState{}, fmt.Errorf("query camera state: %w", err)
	}
	return state, nil
}

// UpdateState applies mutate inside one immediate transaction
func (s *SQLiteStore) UpdateState(ctx context.Context, cameraID uuid.UUID, mutate func(*models.CameraCorruptionState)) (models.CameraCorruptionState, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.CameraCorruptionState{}, fmt.Errorf("begin state transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO camera_corruption_state (camera_id, updated_at)
		VALUES (?, ?)`,
		cameraID.String(), time.Now().UTC(),
	); err != nil {
		return models.CameraCorruptionState{}, fmt.Errorf("ensure camera state row: %w", err)
	}

	state, err := scanState(tx.QueryRowContext(ctx, `
		SELECT consecutive_failures, degraded_mode_active, last_degraded_at,
		       lifetime_glitch_count, updated_at
		FROM camera_corruption_state WHERE camera_id = ?`,
		cameraID.String(),
	), cameraID)
	if err != nil {
		return models.CameraCorruptionState{}, fmt.Errorf("read camera state: %w", err)
	}

	mutate(&state)
	state.UpdatedAt = time.Now().UTC()

	var lastDegraded interface{}
	if state.LastDegradedAt != nil {
		lastDegraded = *state.LastDegradedAt
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE camera_corruption_state
		SET consecutive_failures = ?, degraded_mode_active = ?,
		    last_degraded_at = ?, lifetime_glitch_count = ?, updated_at = ?
		WHERE camera_id = ?`,
		state.ConsecutiveFailures, state.DegradedModeActive, lastDegraded,
		state.LifetimeGlitchCount, state.UpdatedAt, cameraID.String(),
	); err != nil {
		return models.CameraCorruptionState{}, fmt.Errorf("write camera state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.CameraCorruptionState{}, fmt.Errorf("commit state transaction: %w", err)
	}
	return state, nil
}

func scanState(row *sql.Row, cameraID uuid.UUID) (models.CameraCorruptionState, error) {
	state := models.CameraCorruptionState{CameraID: cameraID}
	var lastDegraded sql.NullTime
	err := row.Scan(&state.ConsecutiveFailures, &state.DegradedModeActive,
		&lastDegraded, &state.LifetimeGlitchCount, &state.UpdatedAt)
	if err != nil {
		return state, err
	}
	if lastDegraded.Valid {
		t := lastDegraded.Time
		state.LastDegradedAt = &t
	}
	return state, nil
}
