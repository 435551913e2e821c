package model

import "time"

// Notification is an append-only row created as a side effect of lifecycle
// transitions and sweeper actions. It is the durable record a client can
// re-fetch; live delivery over the event stream is best-effort.
type Notification struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Message   string    `json:"message" bson:"message"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Read      bool      `json:"read" bson:"read"`
}

// SlotPreference is a standing subscription: notify the user when a slot
// on the given level of the area becomes free.
type SlotPreference struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	AreaID    string    `json:"area_id" bson:"area_id" validate:"required,mongodb"`
	Level     int       `json:"level" bson:"level" validate:"required,min=1"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
