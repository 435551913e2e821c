package timepolicy

import (
	"math"
	"parkease/pkg/config"
	"time"
)

// Policy holds the time-dependent rules of the reservation engine: the
// check-in grace period, the expiry reminder window, the soft-lock TTL,
// and the default availability view window. All functions are pure; the
// caller supplies now.
type Policy struct {
	GracePeriod       time.Duration
	ReminderWindow    time.Duration
	LockTTL           time.Duration
	DefaultViewWindow time.Duration
}

func FromConfig(cfg *config.Config) Policy {
	return Policy{
		GracePeriod:       cfg.GracePeriod,
		ReminderWindow:    cfg.ReminderWindow,
		LockTTL:           cfg.LockTTL,
		DefaultViewWindow: cfg.DefaultViewWindow,
	}
}

// GraceEnd is the instant after which a Confirmed booking that has not
// checked in is treated as a no-show.
func (p Policy) GraceEnd(start time.Time) time.Time {
	return start.Add(p.GracePeriod)
}

// LockExpiry is the expiry for a soft lock acquired (or extended) at now.
func (p Policy) LockExpiry(now time.Time) time.Time {
	return now.Add(p.LockTTL)
}

// ReminderDue reports whether an Active booking has entered its final
// reminder window: endTime in (now, now+window]. Bookings already past
// their end get no reminder; the sweeper's no-show and completion paths
// own those.
func (p Policy) ReminderDue(endTime time.Time, reminderSent bool, now time.Time) bool {
	if reminderSent {
		return false
	}
	return endTime.After(now) && !endTime.After(now.Add(p.ReminderWindow))
}

// DefaultWindow is the availability window used when the caller's request
// is absent or unparsable.
func (p Policy) DefaultWindow(now time.Time) (time.Time, time.Time) {
	return now, now.Add(p.DefaultViewWindow)
}

// OverstayHours is the number of billable penalty hours for a checkout
// after the booked end, rounded up to whole hours. Zero when the checkout
// is on time.
func OverstayHours(endTime, checkout time.Time) int {
	if !checkout.After(endTime) {
		return 0
	}
	return int(math.Ceil(checkout.Sub(endTime).Seconds() / 3600))
}
