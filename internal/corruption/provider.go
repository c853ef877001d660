package corruption

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/jordanlambrecht/timelapser-v4-sub005/internal/errors"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/scoring"
)

// SettingsProvider resolves the effective corruption settings for a camera.
// Implementations must return a settings fault (not a zero value) when the
// configuration is missing or invalid, so the evaluation is reported as
// settings_error instead of silently defaulting.
type SettingsProvider interface {
	SettingsFor(ctx context.Context, cameraID uuid.UUID) (scoring.CorruptionSettings, error)
}

// StaticSettingsProvider serves a fixed global settings record with
// per-camera overrides, the shape the configuration owner hands the core
type StaticSettingsProvider struct {
	mu        sync.RWMutex
	global    scoring.CorruptionSettings
	overrides map[uuid.UUID]*scoring.CameraCorruptionSettings
}

// NewStaticSettingsProvider creates a provider over validated global
// settings
func NewStaticSettingsProvider(global scoring.CorruptionSettings) (*StaticSettingsProvider, error) {
	if err := global.Validate(); err != nil {
		return nil, apperrors.NewSettingsFault("invalid global corruption settings", err)
	}
	return &StaticSettingsProvider{
		global:    global,
		overrides: make(map[uuid.UUID]*scoring.CameraCorruptionSettings),
	}, nil
}

// SetCameraOverrides installs (or with nil, removes) a camera's overrides
func (p *StaticSettingsProvider) SetCameraOverrides(cameraID uuid.UUID, overrides *scoring.CameraCorruptionSettings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if overrides == nil {
		delete(p.overrides, cameraID)
		return
	}
	p.overrides[cameraID] = overrides
}

// SettingsFor returns the merged settings for a camera, re-validated in
// case an override broke a cross-field invariant
func (p *StaticSettingsProvider) SettingsFor(ctx context.Context, cameraID uuid.UUID) (scoring.CorruptionSettings, error) {
	p.mu.RLock()
	merged := p.global.WithCameraOverrides(p.overrides[cameraID])
	p.mu.RUnlock()

	if err := merged.Validate(); err != nil {
		return scoring.CorruptionSettings{}, apperrors.NewSettingsFault("invalid camera corruption settings", err)
	}
	return merged, nil
}
