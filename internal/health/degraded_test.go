package health

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/notify"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/repository"
	"github.com/jordanlambrecht/timelapser-v4-sub005/internal/scoring"
	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// recordingNotifier captures transition events for assertions
type recordingNotifier struct {
	mu          sync.Mutex
	transitions []notify.DegradedTransitionEvent
}

func (r *recordingNotifier) NotifyEvaluation(ctx context.Context, event notify.EvaluationEvent) {}

func (r *recordingNotifier) NotifyDegradedTransition(ctx context.Context, event notify.DegradedTransitionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, event)
}

func (r *recordingNotifier) Name() string { return "recording" }

func (r *recordingNotifier) events() []notify.DegradedTransitionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.DegradedTransitionEvent, len(r.transitions))
	copy(out, r.transitions)
	return out
}

func newTestController(settings scoring.CorruptionSettings) (*DegradedModeController, *repository.MemoryStore, *recordingNotifier) {
	store := repository.NewMemoryStore()
	recorder := &recordingNotifier{}
	publisher := notify.NewPublisher()
	publisher.Subscribe(recorder)
	return NewDegradedModeController(settings, store, store, publisher), store, recorder
}

func TestRecordDiscard_ConsecutiveThreshold(t *testing.T) {
	settings := scoring.DefaultCorruptionSettings()
	controller, _, recorder := newTestController(settings)
	cameraID := uuid.New()
	ctx := context.Background()

	// one below the threshold stays normal
	for i := 0; i < settings.DegradedConsecutiveThreshold-1; i++ {
		state, transitioned, err := controller.RecordDiscard(ctx, cameraID)
		if err != nil {
			t.Fatalf("RecordDiscard failed: %v", err)
		}
		if transitioned || state.DegradedModeActive {
			t.Fatalf("Expected normal mode after %d discards", i+1)
		}
	}

	// the threshold discard flips the camera to degraded
	state, transitioned, err := controller.RecordDiscard(ctx, cameraID)
	if err != nil {
		t.Fatalf("RecordDiscard failed: %v", err)
	}
	if !transitioned || !state.DegradedModeActive {
		t.Error("Expected degraded transition at the consecutive threshold")
	}
	if state.LastDegradedAt == nil {
		t.Error("Expected last_degraded_at to be set on transition")
	}
	if state.LifetimeGlitchCount != int64(settings.DegradedConsecutiveThreshold) {
		t.Errorf("Expected lifetime glitch count %d, got %d",
			settings.DegradedConsecutiveThreshold, state.LifetimeGlitchCount)
	}

	events := recorder.events()
	if len(events) != 1 {
		t.Fatalf("Expected exactly one transition event, got %d", len(events))
	}
	if !events[0].DegradedModeActive {
		t.Error("Expected an entering transition event")
	}
}

func TestRecordDiscard_AlreadyDegraded(t *testing.T) {
	settings := scoring.DefaultCorruptionSettings()
	settings.DegradedConsecutiveThreshold = 2
	controller, _, recorder := newTestController(settings)
	cameraID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, _, err := controller.RecordDiscard(ctx, cameraID); err != nil {
			t.Fatalf("RecordDiscard failed: %v", err)
		}
	}

	// the transition fires once; further discards only count
	if got := len(recorder.events()); got != 1 {
		t.Errorf("Expected one transition event, got %d", got)
	}

	state, err := controller.State(ctx, cameraID)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state.LifetimeGlitchCount != 5 {
		t.Errorf("Expected lifetime glitch count 5, got %d", state.LifetimeGlitchCount)
	}
}

func TestRecordSuccess_ResetsConsecutiveOnly(t *testing.T) {
	settings := scoring.DefaultCorruptionSettings()
	settings.DegradedConsecutiveThreshold = 3
	controller, _, _ := newTestController(settings)
	cameraID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := controller.RecordDiscard(ctx, cameraID); err != nil {
			t.Fatalf("RecordDiscard failed: %v", err)
		}
	}

	state, err := controller.RecordSuccess(ctx, cameraID)
	if err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}
	if state.ConsecutiveFailures != 0 {
		t.Errorf("Expected consecutive failures reset, got %d", state.ConsecutiveFailures)
	}
	if !state.DegradedModeActive {
		t.Error("Expected degraded flag to stay latched after a success")
	}
	if state.LifetimeGlitchCount != 3 {
		t.Errorf("Expected lifetime count untouched, got %d", state.LifetimeGlitchCount)
	}
}

func TestReset_ClearsDegradedAndEmitsEvent(t *testing.T) {
	settings := scoring.DefaultCorruptionSettings()
	settings.DegradedConsecutiveThreshold = 1
	controller, _, recorder := newTestController(settings)
	cameraID := uuid.New()
	ctx := context.Background()

	if _, _, err := controller.RecordDiscard(ctx, cameraID); err != nil {
		t.Fatalf("RecordDiscard failed: %v", err)
	}

	state, err := controller.Reset(ctx, cameraID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state.DegradedModeActive {
		t.Error("Expected degraded mode cleared after reset")
	}
	if state.ConsecutiveFailures != 0 {
		t.Errorf("Expected consecutive failures zeroed, got %d", state.ConsecutiveFailures)
	}

	events := recorder.events()
	if len(events) != 2 {
		t.Fatalf("Expected enter and clear events, got %d", len(events))
	}
	if events[1].DegradedModeActive {
		t.Error("Expected the second event to be a clearing transition")
	}
}

func TestReset_NormalCameraIsQuiet(t *testing.T) {
	controller, _, recorder := newTestController(scoring.DefaultCorruptionSettings())

	if _, err := controller.Reset(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if got := len(recorder.events()); got != 0 {
		t.Errorf("Expected no events resetting a normal camera, got %d", got)
	}
}

func TestRecordDiscard_WindowFailureRate(t *testing.T) {
	settings := scoring.DefaultCorruptionSettings()
	settings.DegradedConsecutiveThreshold = 100 // only the window can trigger
	settings.DegradedMinSampleSize = 10
	settings.DegradedFailurePercentage = 0.5
	controller, store, _ := newTestController(settings)
	cameraID := uuid.New()
	ctx := context.Background()

	appendEntries := func(n int, action models.ActionTaken) {
		for i := 0; i < n; i++ {
			entry := &models.CorruptionLogEntry{
				CameraID:    cameraID,
				ActionTaken: action,
				CreatedAt:   time.Now().UTC(),
			}
			if err := store.AppendLog(ctx, entry); err != nil {
				t.Fatalf("AppendLog failed: %v", err)
			}
		}
	}

	// half the window failing but below the sample floor: no trigger
	appendEntries(4, models.ActionDiscarded)
	appendEntries(4, models.ActionSaved)
	state, transitioned, err := controller.RecordDiscard(ctx, cameraID)
	if err != nil {
		t.Fatalf("RecordDiscard failed: %v", err)
	}
	if transitioned || state.DegradedModeActive {
		t.Error("Expected no trigger below the minimum sample size")
	}

	// past the floor with a failure rate at the threshold: trigger
	appendEntries(4, models.ActionDiscarded)
	_, transitioned, err = controller.RecordDiscard(ctx, cameraID)
	if err != nil {
		t.Fatalf("RecordDiscard failed: %v", err)
	}
	if !transitioned {
		t.Error("Expected window failure rate to trigger degraded mode")
	}
}

func TestRecordDiscard_CountsRetriesAsFailures(t *testing.T) {
	settings := scoring.DefaultCorruptionSettings()
	settings.DegradedConsecutiveThreshold = 100
	settings.DegradedMinSampleSize = 10
	controller, store, _ := newTestController(settings)
	cameraID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		entry := &models.CorruptionLogEntry{
			CameraID:    cameraID,
			ActionTaken: models.ActionRetried,
			CreatedAt:   time.Now().UTC(),
		}
		if err := store.AppendLog(ctx, entry); err != nil {
			t.Fatalf("AppendLog failed: %v", err)
		}
	}

	_, transitioned, err := controller.RecordDiscard(ctx, cameraID)
	if err != nil {
		t.Fatalf("RecordDiscard failed: %v", err)
	}
	if !transitioned {
		t.Error("Expected retried frames to count toward the window failure rate")
	}
}
