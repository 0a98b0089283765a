package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishReadingAccepted publishes a ReadingAccepted event
func (ep *EventPublisher) PublishReadingAccepted(ctx context.Context, event *models.ReadingAcceptedEvent) error {
	key := fmt.Sprintf("cabinet-%d", event.CabinetID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishReadingRejected publishes a ReadingRejected event. Keyed by
// hardware id because rejected batches may not resolve to a cabinet.
func (ep *EventPublisher) PublishReadingRejected(ctx context.Context, event *models.ReadingRejectedEvent) error {
	return ep.producer.PublishEvent(ctx, event.HardwareID, event)
}

// PublishAlertRaised publishes an AlertRaised event
func (ep *EventPublisher) PublishAlertRaised(ctx context.Context, event *models.AlertRaisedEvent) error {
	key := fmt.Sprintf("cabinet-%d", event.CabinetID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCabinetRegistered publishes a CabinetRegistered event
func (ep *EventPublisher) PublishCabinetRegistered(ctx context.Context, event *models.CabinetRegisteredEvent) error {
	key := fmt.Sprintf("cabinet-%d", event.CabinetID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onReadingAccepted func(context.Context, *models.ReadingAcceptedEvent) error
	onAlertRaised     func(context.Context, *models.AlertRaisedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnReadingAccepted registers a handler for ReadingAccepted events
func (eh *EventHandler) OnReadingAccepted(handler func(context.Context, *models.ReadingAcceptedEvent) error) {
	eh.onReadingAccepted = handler
}

// OnAlertRaised registers a handler for AlertRaised events
func (eh *EventHandler) OnAlertRaised(handler func(context.Context, *models.AlertRaisedEvent) error) {
	eh.onAlertRaised = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeReadingAccepted:
		if eh.onReadingAccepted != nil {
			var event models.ReadingAcceptedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ReadingAccepted event: %w", err)
			}
			return eh.onReadingAccepted(ctx, &event)
		}

	case models.EventTypeAlertRaised:
		if eh.onAlertRaised != nil {
			var event models.AlertRaisedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal AlertRaised event: %w", err)
			}
			return eh.onAlertRaised(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
