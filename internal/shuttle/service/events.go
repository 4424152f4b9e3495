package service

import (
	"context"

	"shuttle-bot/internal/shuttle/domain"
	"shuttle-bot/pkg/logger"
)

// EventPublisher is the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
}

// EventDispatcher fans one domain event out to every configured sink.
// Delivery is best-effort: a failing sink is logged and never propagates
// back into the ride workflow that raised the event.
type EventDispatcher struct {
	sinks  []EventPublisher
	logger logger.Logger
}

func NewEventDispatcher(log logger.Logger, sinks ...EventPublisher) *EventDispatcher {
	return &EventDispatcher{sinks: sinks, logger: log}
}

// Publish delivers the event to all sinks. Always returns nil.
func (d *EventDispatcher) Publish(ctx context.Context, event domain.DomainEvent) error {
	for _, sink := range d.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			d.logger.WithFields(logger.LogFields{
				"event_type": event.EventType(),
			}).Error("event_publish_failed", err)
		}
	}
	return nil
}
