package corruption

import (
	"context"
	"testing"

	"github.com/google/uuid"

	apperrors "github.com/jordanlambrecht/timelapser-v4-sub005/internal/errors"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/scoring"
)

func TestNewStaticSettingsProvider_RejectsInvalidGlobal(t *testing.T) {
	settings := scoring.DefaultCorruptionSettings()
	settings.FastWeight = 0.9 // weights no longer sum to 1

	_, err := NewStaticSettingsProvider(settings)
	if err == nil {
		t.Fatal("Expected an error for invalid global settings")
	}
	if !apperrors.IsType(err, apperrors.FaultTypeSettings) {
		t.Errorf("Expected a settings fault, got %v", err)
	}
}

func TestSettingsFor_GlobalDefault(t *testing.T) {
	provider, err := NewStaticSettingsProvider(scoring.DefaultCorruptionSettings())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	settings, err := provider.SettingsFor(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("SettingsFor failed: %v", err)
	}
	if settings != scoring.DefaultCorruptionSettings() {
		t.Error("Expected global settings for a camera without overrides")
	}
}

func TestSettingsFor_AppliesOverridesPerCamera(t *testing.T) {
	provider, err := NewStaticSettingsProvider(scoring.DefaultCorruptionSettings())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	tuned := uuid.New()
	other := uuid.New()
	threshold := 65.0
	provider.SetCameraOverrides(tuned, &scoring.CameraCorruptionSettings{
		CorruptionScoreThreshold: &threshold,
	})

	settings, err := provider.SettingsFor(context.Background(), tuned)
	if err != nil {
		t.Fatalf("SettingsFor failed: %v", err)
	}
	if settings.CorruptionScoreThreshold != 65.0 {
		t.Errorf("Expected overridden threshold, got %v", settings.CorruptionScoreThreshold)
	}

	settings, err = provider.SettingsFor(context.Background(), other)
	if err != nil {
		t.Fatalf("SettingsFor failed: %v", err)
	}
	if settings.CorruptionScoreThreshold != 50.0 {
		t.Errorf("Expected global threshold for other cameras, got %v", settings.CorruptionScoreThreshold)
	}
}

func TestSettingsFor_InvalidMergedSettings(t *testing.T) {
	provider, err := NewStaticSettingsProvider(scoring.DefaultCorruptionSettings())
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	cameraID := uuid.New()
	bad := 30.0 // below the corruption threshold
	provider.SetCameraOverrides(cameraID, &scoring.CameraCorruptionSettings{
		AutoDiscardThreshold: &bad,
	})

	_, err = provider.SettingsFor(context.Background(), cameraID)
	if err == nil {
		t.Fatal("Expected an error for invalid merged settings")
	}
	if !apperrors.IsType(err, apperrors.FaultTypeSettings) {
		t.Errorf("Expected a settings fault, got %v", err)
	}
}
