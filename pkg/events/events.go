// Package events defines event types and structures for use-case and client
// action lifecycle notifications.
package events

import (
	"time"

	"github.com/dukex/dno/pkg/models"
)

type EventType string

// Topic carries every lifecycle event.
const Topic = "dno.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Use-case lifecycle events.
	UseCaseStartedEvent  EventType = "usecase.started"
	UseCaseFinishedEvent EventType = "usecase.finished"
	UseCaseFailedEvent   EventType = "usecase.failed"

	// Client action lifecycle events.
	ClientActionRequestedEvent EventType = "client_action.requested"
	ClientActionRunningEvent   EventType = "client_action.running"
	ClientActionDoneEvent      EventType = "client_action.done"
	ClientActionErrorEvent     EventType = "client_action.error"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	TaskID    string    `json:"task_id"`
	Kind      string    `json:"kind"`
}

// NewBaseEvent fills the common fields.
func NewBaseEvent(id string, eventType EventType, taskID, kind string) BaseEvent {
	return BaseEvent{
		ID:        id,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		TaskID:    taskID,
		Kind:      kind,
	}
}

type UseCaseStarted struct {
	BaseEvent

	Attributes map[string]any `json:"attributes"`
}

func (e UseCaseStarted) GetType() EventType {
	return UseCaseStartedEvent
}

type UseCaseFinished struct {
	BaseEvent

	Result   map[string]any `json:"result"`
	Duration time.Duration  `json:"duration"`
}

func (e UseCaseFinished) GetType() EventType {
	return UseCaseFinishedEvent
}

type UseCaseFailed struct {
	BaseEvent

	Error    map[string]any `json:"error"`
	Duration time.Duration  `json:"duration"`
}

func (e UseCaseFailed) GetType() EventType {
	return UseCaseFailedEvent
}

// ClientActionChanged is published on every client action transition; its
// Type tells which one.
type ClientActionChanged struct {
	BaseEvent

	Action models.ActionSnapshot `json:"action"`
}

func (e ClientActionChanged) GetType() EventType {
	return e.Type
}

// ActionEventType maps an action status to the event announcing it.
func ActionEventType(status models.ActionStatus) EventType {
	switch status {
	case models.ActionStatusRunning:
		return ClientActionRunningEvent
	case models.ActionStatusDone:
		return ClientActionDoneEvent
	case models.ActionStatusError:
		return ClientActionErrorEvent
	default:
		return ClientActionRequestedEvent
	}
}
