package service

import (
	"context"
	"time"

	areaservice "parkease/internal/areas/service"
	lockservice "parkease/internal/locks/service"
	apperrors "parkease/pkg/errors"
	"parkease/pkg/logger"
	"parkease/pkg/model"
)

// AvailabilityService computes the per-slot view of an area for a
// requested time window. The view is advisory: booking creation re-checks
// collisions atomically, so a stale view can never oversell a slot.
type AvailabilityService interface {
	Resolve(ctx context.Context, areaID string, window Window, viewerID string) (*View, error)
}

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

type SlotView struct {
	model.Slot
	Status model.SlotViewStatus `json:"status"`
}

type View struct {
	Area   *model.ParkingArea `json:"area"`
	Window Window             `json:"window"`
	Slots  []SlotView         `json:"slots"`
}

// BookingReader is the slice of the booking store the resolver needs.
type BookingReader interface {
	FindReservingByArea(ctx context.Context, areaID string) ([]*model.Booking, error)
}

type availabilityService struct {
	areas    areaservice.AreaService
	bookings BookingReader
	locks    lockservice.LockService
	now      func() time.Time
	log      *logger.Logger
}

func NewAvailabilityService(areas areaservice.AreaService, bookings BookingReader, locks lockservice.LockService, log *logger.Logger) AvailabilityService {
	return &availabilityService{
		areas:    areas,
		bookings: bookings,
		locks:    locks,
		now:      time.Now,
		log:      log,
	}
}

func (s *availabilityService) Resolve(ctx context.Context, areaID string, window Window, viewerID string) (*View, error) {
	if !window.Valid() {
		return nil, apperrors.InvalidInput("window end must be after window start")
	}
	now := s.now().UTC()

	// Expired locks must not show as Locked, so sweep them first.
	if _, err := s.locks.PurgeExpired(ctx); err != nil {
		s.log.Warn("lock purge failed during availability resolve", "error", err)
	}

	area, err := s.areas.Get(ctx, areaID)
	if err != nil {
		return nil, err
	}
	slots, err := s.areas.Slots(ctx, areaID)
	if err != nil {
		return nil, err
	}

	occupied, err := s.occupiedSlots(ctx, areaID, window, now)
	if err != nil {
		return nil, err
	}
	held, err := s.locks.LocksFor(ctx, areaID)
	if err != nil {
		return nil, err
	}

	views := make([]SlotView, len(slots))
	for i, slot := range slots {
		views[i] = SlotView{
			Slot:   *slot,
			Status: classify(slot.SlotNumber, occupied, held, viewerID),
		}
	}
	return &View{Area: area, Window: window, Slots: views}, nil
}

// occupiedSlots collects the slot numbers reserved for any part of the
// window. An Active booking past its end time still occupies its slots
// until checkout, so its end is stretched to now.
func (s *availabilityService) occupiedSlots(ctx context.Context, areaID string, window Window, now time.Time) (map[string]struct{}, error) {
	bookings, err := s.bookings.FindReservingByArea(ctx, areaID)
	if err != nil {
		return nil, apperrors.Internal("failed to load reserving bookings", err)
	}

	occupied := make(map[string]struct{})
	for _, booking := range bookings {
		end := booking.EffectiveEnd(now)
		if booking.StartTime.Before(window.End) && end.After(window.Start) {
			for _, slotNumber := range booking.Spots {
				occupied[slotNumber] = struct{}{}
			}
		}
	}
	return occupied, nil
}

// Occupied beats Locked beats Selected: a paid reservation always wins,
// and a viewer's own lock on an occupied slot must not read as Selected.
func classify(slotNumber string, occupied map[string]struct{}, held map[string]string, viewerID string) model.SlotViewStatus {
	if _, ok := occupied[slotNumber]; ok {
		return model.SlotOccupied
	}
	if holder, ok := held[slotNumber]; ok {
		if holder == viewerID {
			return model.SlotSelected
		}
		return model.SlotLocked
	}
	return model.SlotAvailable
}
