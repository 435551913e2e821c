package model

import "time"

// BookingStatus is the lifecycle state of a booking. Transitions are
// validated centrally through CanTransition; repositories additionally
// guard every write on the expected current status so concurrent
// transitions cannot both apply.
type BookingStatus string

const (
	StatusPendingPayment  BookingStatus = "Pending Payment"
	StatusConfirmed       BookingStatus = "Confirmed"
	StatusActive          BookingStatus = "Active"
	StatusCompleted       BookingStatus = "Completed"
	StatusCancelledByUser BookingStatus = "Cancelled (User)"
	StatusCancelledNoShow BookingStatus = "Cancelled (No Show)"
)

// transitions is the single source of truth for legal lifecycle moves.
// Deletion from Pending Payment is handled separately (the record is
// removed outright, no transition applies).
var transitions = map[BookingStatus][]BookingStatus{
	StatusPendingPayment: {StatusConfirmed, StatusActive},
	StatusConfirmed:      {StatusActive, StatusCancelledByUser, StatusCancelledNoShow},
	StatusActive:         {StatusCompleted},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status ends the lifecycle.
func (s BookingStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Reserving reports whether a booking in this status holds its slots and
// counts toward area occupancy.
func (s BookingStatus) Reserving() bool {
	switch s {
	case StatusPendingPayment, StatusConfirmed, StatusActive:
		return true
	}
	return false
}

// ReservingStatuses are the statuses counted by collision and occupancy
// queries, in the order used by the store filters.
func ReservingStatuses() []BookingStatus {
	return []BookingStatus{StatusActive, StatusPendingPayment, StatusConfirmed}
}

// Booking is the central aggregate, owned exclusively by the lifecycle
// engine. Area name and vehicle number are denormalized for notification
// text and gate lookup.
type Booking struct {
	ID            string        `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        string        `json:"user_id" bson:"user_id"`
	AreaID        string        `json:"area_id" bson:"area_id"`
	AreaName      string        `json:"area_name" bson:"area_name"`
	SlotIDs       []string      `json:"slot_ids" bson:"slot_ids"`
	Spots         []string      `json:"spots" bson:"spots"`
	VehicleNumber string        `json:"vehicle_number" bson:"vehicle_number"`
	StartTime     time.Time     `json:"start_time" bson:"start_time"`
	EndTime       time.Time     `json:"end_time" bson:"end_time"`
	GraceEnd      time.Time     `json:"grace_period_end" bson:"grace_period_end"`
	Duration      int           `json:"duration" bson:"duration"`
	Amount        float64       `json:"amount" bson:"amount"`
	Status        BookingStatus `json:"status" bson:"status"`
	EntryToken    string        `json:"entry_token" bson:"entry_token"`
	ExitToken     string        `json:"exit_token" bson:"exit_token"`
	CheckInTime   *time.Time    `json:"check_in_time,omitempty" bson:"check_in_time,omitempty"`
	CheckOutTime  *time.Time    `json:"check_out_time,omitempty" bson:"check_out_time,omitempty"`
	ReminderSent  bool          `json:"reminder_sent" bson:"reminder_sent"`
	RefundAmount  float64       `json:"refund_amount,omitempty" bson:"refund_amount,omitempty"`
	PenaltyAmount float64       `json:"penalty_amount,omitempty" bson:"penalty_amount,omitempty"`
	Overstayed    bool          `json:"overstayed,omitempty" bson:"overstayed,omitempty"`
	CancelReason  string        `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CreatedAt     time.Time     `json:"created_at" bson:"created_at"`
}

// Overlaps reports half-open interval overlap with [start, end): a booking
// ending exactly when another starts does not collide.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// EffectiveEnd extends an Active booking's footprint to now while someone
// is parked past the reserved end, so the slot is never shown as free.
func (b *Booking) EffectiveEnd(now time.Time) time.Time {
	if b.Status == StatusActive && now.After(b.EndTime) {
		return now
	}
	return b.EndTime
}
