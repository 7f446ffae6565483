package main

import (
	"context"
	"log/slog"

	"github.com/dukex/dno/pkg/eventbus"
	"github.com/dukex/dno/pkg/events"
)

var loggedEvents = []events.EventType{
	events.UseCaseStartedEvent,
	events.UseCaseFinishedEvent,
	events.UseCaseFailedEvent,
	events.ClientActionRequestedEvent,
	events.ClientActionRunningEvent,
	events.ClientActionDoneEvent,
	events.ClientActionErrorEvent,
}

// subscribeEventLog writes every lifecycle event to the log as it comes off the bus.
func subscribeEventLog(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	logger = logger.With("module", "event_log")

	for _, eventType := range loggedEvents {
		err := bus.Handle(eventType, func(ctx context.Context, event any) error {
			logEvent(ctx, logger, event)

			return nil
		})
		if err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}

func logEvent(ctx context.Context, logger *slog.Logger, event any) {
	switch e := event.(type) {
	case *events.UseCaseStarted:
		logger.DebugContext(ctx, "Event received", "type", e.Type, "task_id", e.TaskID, "kind", e.Kind)
	case *events.UseCaseFinished:
		logger.DebugContext(ctx, "Event received", "type", e.Type, "task_id", e.TaskID, "kind", e.Kind, "duration", e.Duration)
	case *events.UseCaseFailed:
		logger.DebugContext(ctx, "Event received", "type", e.Type, "task_id", e.TaskID, "kind", e.Kind, "error", e.Error)
	case *events.ClientActionChanged:
		logger.DebugContext(ctx, "Event received",
			"type", e.Type,
			"task_id", e.TaskID,
			"action_id", e.Action.ID,
			"action", e.Action.Name,
		)
	}
}
