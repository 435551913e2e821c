package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	areaservice "parkease/internal/areas/service"
	bookingerrors "parkease/internal/bookings/errors"
	"parkease/internal/bookings/repository"
	"parkease/internal/events"
	lockservice "parkease/internal/locks/service"
	notificationservice "parkease/internal/notifications/service"
	"parkease/internal/pricing"
	"parkease/internal/timepolicy"
	"parkease/pkg/logger"
	"parkease/pkg/model"
)

// Sweeper is the periodic reconciler: it cancels no-shows whose grace
// period lapsed, sends expiry reminders, and purges stale slot locks.
// Every mutation goes through the same guarded updates the live request
// path uses, so an overlapping sweep or a racing user action settles to
// one winner and the loser is a clean skip.
type Sweeper struct {
	bookings      repository.BookingRepository
	areas         areaservice.AreaService
	locks         lockservice.LockService
	notifications notificationservice.NotificationService
	publisher     events.Publisher
	pricing       pricing.Policy
	policy        timepolicy.Policy
	now           func() time.Time
	log           *logger.Logger
}

func New(
	bookings repository.BookingRepository,
	areas areaservice.AreaService,
	locks lockservice.LockService,
	notifications notificationservice.NotificationService,
	publisher events.Publisher,
	pricingPolicy pricing.Policy,
	timePolicy timepolicy.Policy,
	log *logger.Logger,
) *Sweeper {
	return &Sweeper{
		bookings:      bookings,
		areas:         areas,
		locks:         locks,
		notifications: notifications,
		publisher:     publisher,
		pricing:       pricingPolicy,
		policy:        timePolicy,
		now:           time.Now,
		log:           log,
	}
}

// Summary is the outcome of one sweep pass.
type Summary struct {
	LocksPurged      int64 `json:"locks_purged"`
	NoShowsCancelled int   `json:"no_shows_cancelled"`
	RemindersSent    int   `json:"reminders_sent"`
}

// Run executes one full sweep. It is the cron entry point.
func (s *Sweeper) Run(ctx context.Context) {
	s.Sweep(ctx, "")
}

// Sweep executes one pass. areaID narrows the no-show phase to a single
// area; empty sweeps everywhere. Each phase is independent; a failure in
// one is logged and the others still run.
func (s *Sweeper) Sweep(ctx context.Context, areaID string) Summary {
	var summary Summary

	purged, err := s.locks.PurgeExpired(ctx)
	if err != nil {
		s.log.Error("lock purge sweep failed", "error", err)
	} else {
		summary.LocksPurged = purged
	}

	cancelled, err := s.RunNoShows(ctx, areaID)
	if err != nil {
		s.log.Error("no-show sweep failed", "error", err)
	} else {
		summary.NoShowsCancelled = cancelled
	}

	sent, err := s.RunReminders(ctx)
	if err != nil {
		s.log.Error("reminder sweep failed", "error", err)
	} else {
		summary.RemindersSent = sent
	}
	return summary
}

// RunNoShows cancels confirmed bookings whose grace period ended without
// a check-in, refunds all but the cancellation fee, frees the slots, and
// tells level subscribers a spot opened up. An empty areaID covers every
// area.
func (s *Sweeper) RunNoShows(ctx context.Context, areaID string) (int, error) {
	now := s.now().UTC()
	candidates, err := s.bookings.FindNoShowCandidates(ctx, now, areaID)
	if err != nil {
		return 0, fmt.Errorf("loading no-show candidates: %w", err)
	}

	cancelled := 0
	for _, booking := range candidates {
		updated, err := s.bookings.Transition(ctx, booking.ID,
			[]model.BookingStatus{model.StatusConfirmed},
			model.StatusCancelledNoShow,
			bson.M{
				"refund_amount": s.pricing.Refund(booking.Amount),
				"cancel_reason": "No show",
			})
		if err != nil {
			// A racing check-in or cancel got there first.
			if errors.Is(err, bookingerrors.ErrStatusConflict) || errors.Is(err, bookingerrors.ErrNotFound) {
				continue
			}
			s.log.Error("failed to cancel no-show booking", "booking_id", booking.ID, "error", err)
			continue
		}
		cancelled++

		area, err := s.areas.AdjustOccupancy(ctx, updated.AreaID, -len(updated.Spots))
		if err != nil {
			s.log.Error("failed to release occupancy for no-show",
				"booking_id", updated.ID, "area_id", updated.AreaID, "error", err)
		} else {
			s.publisher.PublishAvailability(ctx, area)
		}

		s.notifyOwner(ctx, updated)
		s.notifySubscribers(ctx, updated)
	}

	if cancelled > 0 {
		s.log.Info("no-show sweep completed", "cancelled", cancelled)
	}
	return cancelled, nil
}

// RunReminders notifies users whose active booking ends within the
// reminder window. The flag flip is the guard: whichever sweep flips it
// sends the one and only reminder.
func (s *Sweeper) RunReminders(ctx context.Context) (int, error) {
	now := s.now().UTC()
	candidates, err := s.bookings.FindReminderCandidates(ctx, now, s.policy.ReminderWindow)
	if err != nil {
		return 0, fmt.Errorf("loading reminder candidates: %w", err)
	}

	sent := 0
	for _, booking := range candidates {
		flipped, err := s.bookings.MarkReminderSent(ctx, booking.ID)
		if err != nil {
			s.log.Error("failed to mark reminder sent", "booking_id", booking.ID, "error", err)
			continue
		}
		if !flipped {
			continue
		}
		sent++
		s.notify(ctx, booking.UserID, fmt.Sprintf(
			"Your booking at %s ends at %s. Extend it or check out in time to avoid an overstay penalty.",
			booking.AreaName, booking.EndTime.Format(time.RFC3339)))
	}

	if sent > 0 {
		s.log.Info("reminder sweep completed", "sent", sent)
	}
	return sent, nil
}

func (s *Sweeper) notifyOwner(ctx context.Context, booking *model.Booking) {
	if booking.RefundAmount > 0 {
		s.notify(ctx, booking.UserID, fmt.Sprintf(
			"Booking at %s was cancelled (no show). Refund of %.2f issued.",
			booking.AreaName, booking.RefundAmount))
		return
	}
	s.notify(ctx, booking.UserID, fmt.Sprintf(
		"Booking at %s was cancelled (no show).", booking.AreaName))
}

// notifySubscribers pings everyone watching the levels of the freed
// slots, skipping the owner who just lost the booking.
func (s *Sweeper) notifySubscribers(ctx context.Context, booking *model.Booking) {
	levels := make(map[int][]string)
	for _, slotNumber := range booking.Spots {
		level := model.SlotLevel(slotNumber)
		levels[level] = append(levels[level], slotNumber)
	}

	for level, slotNumbers := range levels {
		subscribers, err := s.notifications.SubscribersFor(ctx, booking.AreaID, level)
		if err != nil {
			s.log.Warn("failed to load level subscribers",
				"area_id", booking.AreaID, "level", level, "error", err)
			continue
		}
		message := fmt.Sprintf("Slot(s) %v on level %d at %s just opened up.",
			slotNumbers, level, booking.AreaName)
		for _, userID := range subscribers {
			if userID == booking.UserID {
				continue
			}
			s.notify(ctx, userID, message)
		}
	}
}

func (s *Sweeper) notify(ctx context.Context, userID, message string) {
	if err := s.notifications.Notify(ctx, userID, message); err != nil {
		s.log.Warn("failed to deliver sweep notification", "user_id", userID, "error", err)
	}
}
