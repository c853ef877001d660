package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

// EvaluationEvent is emitted once per frame evaluation, suitable for
// real-time dashboards
type EvaluationEvent struct {
	CameraID         uuid.UUID          `json:"camera_id"`
	CorruptionScore  float64            `json:"corruption_score"`
	ActionTaken      models.ActionTaken `json:"action_taken"`
	ProcessingTimeMs float64            `json:"processing_time_ms"`
	FailedChecks     []string           `json:"failed_checks,omitempty"`
	Timestamp        time.Time          `json:"timestamp"`
}

// DegradedTransitionEvent is emitted on every degraded-mode state change
type DegradedTransitionEvent struct {
	CameraID            uuid.UUID `json:"camera_id"`
	DegradedModeActive  bool      `json:"degraded_mode_active"`
	ConsecutiveFailures int       `json:"consecutive_failures,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// Notifier is a sink for the two event shapes the core produces. The
// transport behind a sink is an external concern.
type Notifier interface {
	NotifyEvaluation(ctx context.Context, event EvaluationEvent)
	NotifyDegradedTransition(ctx context.Context, event DegradedTransitionEvent)
	Name() string
}

// Publisher fans events out to subscribed notifiers
type Publisher interface {
	Subscribe(notifier Notifier)
	Unsubscribe(notifier Notifier)
	NotifyEvaluation(ctx context.Context, event EvaluationEvent)
	NotifyDegradedTransition(ctx context.Context, event DegradedTransitionEvent)
}

// eventPublisher implements Publisher
type eventPublisher struct {
	mu        sync.RWMutex
	notifiers []Notifier
}

// NewPublisher creates an empty event publisher
func NewPublisher() Publisher {
	return &eventPublisher{}
}

// Subscribe adds a notifier
func (p *eventPublisher) Subscribe(notifier Notifier) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifiers = append(p.notifiers, notifier)
}

// Unsubscribe removes a notifier by name
func (p *eventPublisher) Unsubscribe(notifier Notifier) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, n := range p.notifiers {
		if n.Name() == notifier.Name() {
			p.notifiers = append(p.notifiers[:i], p.notifiers[i+1:]...)
			break
		}
	}
}

// NotifyEvaluation delivers an evaluation event to all notifiers
func (p *eventPublisher) NotifyEvaluation(ctx context.Context, event EvaluationEvent) {
	for _, n := range p.snapshot() {
		p.deliver(n, func() { n.NotifyEvaluation(ctx, event) })
	}
}

// NotifyDegradedTransition delivers a transition event to all notifiers
func (p *eventPublisher) NotifyDegradedTransition(ctx context.Context, event DegradedTransitionEvent) {
	for _, n := range p.snapshot() {
		p.deliver(n, func() { n.NotifyDegradedTransition(ctx, event) })
	}
}

func (p *eventPublisher) snapshot() []Notifier {
	p.mu.RLock()
	defer p.mu.RUnlock()
	notifiers := make([]Notifier, len(p.notifiers))
	copy(notifiers, p.notifiers)
	return notifiers
}

// deliver runs one notifier synchronously; a panicking notifier must not
// take the evaluation pipeline down with it
func (p *eventPublisher) deliver(n Notifier, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("notifier", n.Name()).
				WithField("panic", r).
				Error("Notifier panicked while handling event")
		}
	}()
	fn()
}
