package events

import (
	"context"
	"parkease/pkg/kafka"
	"parkease/pkg/logger"
)

// Relay bridges the Kafka event topic into the in-process hub so viewers
// connected to any instance see events produced by every instance.
type Relay struct {
	hub *Hub
	log *logger.Logger
}

func NewRelay(hub *Hub, log *logger.Logger) *Relay {
	return &Relay{
		hub: hub,
		log: log,
	}
}

// Handle is the consumer callback. Unknown event types are skipped, not
// failed, so a rolling deploy with new event types never wedges the relay.
func (r *Relay) Handle(ctx context.Context, msg kafka.Message) error {
	event := Event{
		Type:    msg.GetEventType(),
		Payload: msg.Value,
	}

	switch event.Type {
	case TypeAvailabilityChanged:
		r.hub.Publish(AreaTopic(msg.Key), event)
	case TypeUserNotified:
		r.hub.Publish(UserTopic(msg.Key), event)
	default:
		r.log.Debug("Skipping unknown event type",
			"event_type", event.Type,
			"event_id", msg.GetEventID(),
		)
	}
	return nil
}
