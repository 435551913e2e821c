package model

import "time"

// GeoPoint is a GeoJSON point, longitude first.
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// ParkingArea is a physical facility with a fixed slot capacity. The
// occupied counter is mutated only by the booking lifecycle engine and the
// reconciliation sweeper, always through atomic increments; 0 <= occupied
// <= capacity holds after every settled operation.
type ParkingArea struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Capacity    int       `json:"capacity" bson:"capacity" validate:"required,min=1"`
	Occupied    int       `json:"occupied" bson:"occupied" validate:"min=0"`
	Price       float64   `json:"price" bson:"price" validate:"required,gt=0"`
	Levels      int       `json:"levels" bson:"levels" validate:"min=1"`
	HasEV       bool      `json:"has_ev" bson:"has_ev"`
	HasHandicap bool      `json:"has_handicap" bson:"has_handicap"`
	HasBike     bool      `json:"has_bike" bson:"has_bike"`
	Location    GeoPoint  `json:"location" bson:"location"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
