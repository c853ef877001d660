package models

import (
	"time"

	"github.com/google/uuid"
)

// HealthStatus buckets a camera health score for monitoring
type HealthStatus string

const (
	HealthStatusExcellent  HealthStatus = "excellent"
	HealthStatusHealthy    HealthStatus = "healthy"
	HealthStatusMonitoring HealthStatus = "monitoring"
	HealthStatusDegraded   HealthStatus = "degraded"
	HealthStatusCritical   HealthStatus = "critical"
)

// HealthMetrics is the snapshot of inputs a health assessment was derived
// from, echoed back for dashboards
type HealthMetrics struct {
	ConsecutiveFailures int     `json:"consecutive_failures"`
	DegradedModeActive  bool    `json:"degraded_mode_active"`
	LifetimeGlitchCount int64   `json:"lifetime_glitch_count"`
	TotalDetections     int64   `json:"total_detections"`
	ImagesDiscarded     int64   `json:"images_discarded"`
	DiscardRatio        float64 `json:"discard_ratio"`
	AvgCorruptionScore  float64 `json:"avg_corruption_score"`
	AvgProcessingTimeMs float64 `json:"avg_processing_time_ms"`
}

// HealthAssessment is a derived, always-recomputable view of a camera's
// recent reliability. It is never persisted as authoritative state.
type HealthAssessment struct {
	CameraID        uuid.UUID     `json:"camera_id"`
	HealthScore     float64       `json:"health_score"`
	Status          HealthStatus  `json:"status"`
	Issues          []string      `json:"issues"`
	Recommendations []string      `json:"recommendations"`
	Metrics         HealthMetrics `json:"metrics"`
	AssessedAt      time.Time     `json:"assessed_at"`
}
