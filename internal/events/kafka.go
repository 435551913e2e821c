package events

import (
	"context"
	"parkease/pkg/kafka"
	"parkease/pkg/logger"
	"parkease/pkg/model"
)

const sourceService = "parkd"

// KafkaPublisher writes events to the shared topic, keyed by area or user
// id so each room's events stay ordered. Errors are logged and swallowed:
// the state commit already happened and must not be gated on publish.
type KafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *KafkaPublisher) PublishAvailability(ctx context.Context, area *model.ParkingArea) {
	msg := kafka.NewMessage().
		WithKey(area.ID).
		WithEventType(TypeAvailabilityChanged).
		WithSource(sourceService).
		WithValue(AvailabilityChanged{
			AreaID:   area.ID,
			Occupied: area.Occupied,
			Capacity: area.Capacity,
		}).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish availability event",
			"area_id", area.ID,
			"error", err,
		)
	}
}

func (p *KafkaPublisher) PublishUserNotified(ctx context.Context, userID string) {
	msg := kafka.NewMessage().
		WithKey(userID).
		WithEventType(TypeUserNotified).
		WithSource(sourceService).
		WithValue(UserNotified{UserID: userID}).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish user notification event",
			"user_id", userID,
			"error", err,
		)
	}
}
