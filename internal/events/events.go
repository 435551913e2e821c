package events

import (
	"context"
	"parkease/pkg/model"
)

const (
	TypeAvailabilityChanged = "availability.changed"
	TypeUserNotified        = "user.notified"
)

// AvailabilityChanged is broadcast to every viewer of an area's map after
// occupancy moves. It carries the settled counters, never a delta.
type AvailabilityChanged struct {
	AreaID   string `json:"area_id"`
	Occupied int    `json:"occupied"`
	Capacity int    `json:"capacity"`
}

// UserNotified tells the user's connected sessions to re-fetch their
// notification feed. The Notification row is the durable record; this
// event is only a nudge.
type UserNotified struct {
	UserID string `json:"user_id"`
}

// Publisher fans lifecycle side effects out to live viewers. Publishing
// happens strictly after the state commit and is best-effort: failures are
// logged by implementations and never surfaced to the state-changing
// caller.
type Publisher interface {
	PublishAvailability(ctx context.Context, area *model.ParkingArea)
	PublishUserNotified(ctx context.Context, userID string)
}

// AreaTopic and UserTopic name the in-process fan-out rooms.
func AreaTopic(areaID string) string {
	return "area:" + areaID
}

func UserTopic(userID string) string {
	return "user:" + userID
}
