package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"shuttle-bot/internal/shuttle/domain"
	"shuttle-bot/pkg/logger"
)

// EventPublisher publishes ride domain events to the topic exchange.
type EventPublisher struct {
	rabbit *Connection
	logger logger.Logger
}

func NewEventPublisher(rabbit *Connection, log logger.Logger) *EventPublisher {
	return &EventPublisher{rabbit: rabbit, logger: log}
}

// Publish serializes the event and sends it with a type-specific routing
// key.
func (p *EventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	routingKey := p.routingKey(event)
	if routingKey == "" {
		return fmt.Errorf("unsupported event type: %s", event.EventType())
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.rabbit.Publish(ctx, ExchangeName, routingKey, body); err != nil {
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}

	p.logger.WithFields(logger.LogFields{
		"event_type":  event.EventType(),
		"routing_key": routingKey,
	}).Debug("event_published", "Ride event published to RabbitMQ")
	return nil
}

func (p *EventPublisher) routingKey(event domain.DomainEvent) string {
	switch e := event.(type) {
	case domain.RidePostedEvent:
		return "ride.posted"
	case domain.SeatsReservedEvent:
		return fmt.Sprintf("ride.reserved.%d", e.PostingID)
	case domain.RideClosedEvent:
		return fmt.Sprintf("ride.closed.%d", e.PostingID)
	default:
		return ""
	}
}
