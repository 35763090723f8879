package core

import (
	"context"
	"time"
)

// EventType identifies a semantic event emitted while driving a run.
type EventType string

const (
	EventRoundStarted    EventType = "round.started"
	EventRoundCompleted  EventType = "round.completed"
	EventRoleObserving   EventType = "role.observing"
	EventRoleThinking    EventType = "role.thinking"
	EventRoleActing      EventType = "role.acting"
	EventRoleIdle        EventType = "role.idle"
	EventRoleFailed      EventType = "role.failed"
	EventActionRetry     EventType = "action.retry"
	EventActionCompleted EventType = "action.completed"
	EventRunFinished     EventType = "run.finished"
)

// Event captures a semantic streaming/logging event.
type Event struct {
	Type      EventType
	Role      string
	Round     int
	Timestamp time.Time
	Payload   map[string]any
}

// EventEmitter receives semantic events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopEventEmitter is a default no-op implementation.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(_ context.Context, _ Event) {}

// NewEvent builds a default event with timestamp.
func NewEvent(eventType EventType, role string, round int, payload map[string]any) Event {
	return Event{
		Type:      eventType,
		Role:      role,
		Round:     round,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
