package model

import (
	"fmt"
	"time"
)

// SlotLock is a short-lived advisory reservation of a slot taken between
// "select on map" and "submit booking". At most one unexpired lock exists
// per (area, slot); the unique _id enforces it. Expired locks are inert
// and are purged by reads rather than trusted as absent.
type SlotLock struct {
	ID         string    `json:"id" bson:"_id"`
	AreaID     string    `json:"area_id" bson:"area_id"`
	SlotNumber string    `json:"slot_number" bson:"slot_number"`
	UserID     string    `json:"user_id" bson:"user_id"`
	ExpiresAt  time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// SlotLockID builds the composite key serializing concurrent shoppers on
// one physical slot.
func SlotLockID(areaID, slotNumber string) string {
	return fmt.Sprintf("%s:%s", areaID, slotNumber)
}

// Expired reports whether the lock is inert at the given instant.
func (l *SlotLock) Expired(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}
