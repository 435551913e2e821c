package model

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{StatusPendingPayment, StatusConfirmed, true},
		{StatusPendingPayment, StatusActive, true},
		{StatusConfirmed, StatusActive, true},
		{StatusConfirmed, StatusCancelledByUser, true},
		{StatusConfirmed, StatusCancelledNoShow, true},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusConfirmed, false},
		{StatusCompleted, StatusActive, false},
		{StatusCancelledByUser, StatusConfirmed, false},
		{StatusCancelledNoShow, StatusActive, false},
		{StatusCompleted, StatusCompleted, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	terminal := []BookingStatus{StatusCompleted, StatusCancelledByUser, StatusCancelledNoShow}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}
	live := []BookingStatus{StatusPendingPayment, StatusConfirmed, StatusActive}
	for _, s := range live {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	booking := &Booking{
		StartTime: base,
		EndTime:   base.Add(2 * time.Hour),
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical window", base, base.Add(2 * time.Hour), true},
		{"contained window", base.Add(30 * time.Minute), base.Add(time.Hour), true},
		{"overlapping head", base.Add(-time.Hour), base.Add(time.Hour), true},
		{"overlapping tail", base.Add(time.Hour), base.Add(3 * time.Hour), true},
		{"back to back after", base.Add(2 * time.Hour), base.Add(4 * time.Hour), false},
		{"back to back before", base.Add(-2 * time.Hour), base, false},
		{"disjoint", base.Add(5 * time.Hour), base.Add(6 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := booking.Overlaps(tt.start, tt.end); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestEffectiveEnd(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := base.Add(2 * time.Hour)

	active := &Booking{Status: StatusActive, EndTime: end}
	if got := active.EffectiveEnd(end.Add(time.Hour)); !got.Equal(end.Add(time.Hour)) {
		t.Errorf("overstayed active booking: EffectiveEnd = %v, want now", got)
	}
	if got := active.EffectiveEnd(base); !got.Equal(end) {
		t.Errorf("active booking before end: EffectiveEnd = %v, want %v", got, end)
	}

	confirmed := &Booking{Status: StatusConfirmed, EndTime: end}
	if got := confirmed.EffectiveEnd(end.Add(time.Hour)); !got.Equal(end) {
		t.Errorf("confirmed booking never stretches: EffectiveEnd = %v, want %v", got, end)
	}
}
