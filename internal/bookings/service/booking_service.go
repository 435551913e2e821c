package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	areaservice "parkease/internal/areas/service"
	bookingerrors "parkease/internal/bookings/errors"
	"parkease/internal/bookings/repository"
	"parkease/internal/bookings/validator"
	"parkease/internal/events"
	lockservice "parkease/internal/locks/service"
	"parkease/internal/pricing"
	"parkease/internal/timepolicy"
	apperrors "parkease/pkg/errors"
	"parkease/pkg/logger"
	"parkease/pkg/model"
)

const tokenAttempts = 5

// Notifier delivers a user-facing message. Delivery is best effort; the
// booking outcome never depends on it.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

type BookingService interface {
	Create(ctx context.Context, actor model.Actor, req *validator.CreateBookingRequest) (*model.Booking, error)
	ConfirmPayment(ctx context.Context, actor model.Actor, bookingID string) (*model.Booking, error)
	CheckIn(ctx context.Context, actor model.Actor, req *validator.GateRequest) (*model.Booking, error)
	CheckOut(ctx context.Context, actor model.Actor, req *validator.GateRequest) (*model.Booking, error)
	Cancel(ctx context.Context, actor model.Actor, bookingID string) (*model.Booking, error)
	Extend(ctx context.Context, actor model.Actor, bookingID string, req *validator.ExtendBookingRequest) (*model.Booking, error)
	Get(ctx context.Context, actor model.Actor, bookingID string) (*model.Booking, error)
	ListForUser(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Booking, int64, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	areas     areaservice.AreaService
	locks     lockservice.LockService
	publisher events.Publisher
	notifier  Notifier
	pricing   pricing.Policy
	policy    timepolicy.Policy
	validator *validator.BookingValidator
	now       func() time.Time
	log       *logger.Logger
}

func NewBookingService(
	repo repository.BookingRepository,
	areas areaservice.AreaService,
	locks lockservice.LockService,
	publisher events.Publisher,
	notifier Notifier,
	pricingPolicy pricing.Policy,
	timePolicy timepolicy.Policy,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		areas:     areas,
		locks:     locks,
		publisher: publisher,
		notifier:  notifier,
		pricing:   pricingPolicy,
		policy:    timePolicy,
		validator: validator.NewBookingValidator(),
		now:       time.Now,
		log:       log,
	}
}

// Create reserves slots in Pending Payment. The collision count and the
// capacity-guarded occupancy increment are the two gates that keep
// concurrent requests for the same slots from both succeeding.
func (s *bookingService) Create(ctx context.Context, actor model.Actor, req *validator.CreateBookingRequest) (*model.Booking, error) {
	if !actor.HasVehicle() {
		return nil, apperrors.ProfileIncomplete("add a vehicle number to your profile before booking")
	}
	now := s.now().UTC()
	if err := s.validator.ValidateCreate(req, now); err != nil {
		return nil, err
	}

	area, err := s.areas.Get(ctx, req.AreaID)
	if err != nil {
		return nil, err
	}
	slots, err := s.areas.Slots(ctx, req.AreaID)
	if err != nil {
		return nil, err
	}
	slotIDs, err := resolveSlotIDs(slots, req.SlotNumbers)
	if err != nil {
		return nil, err
	}

	held, err := s.locks.LocksFor(ctx, req.AreaID)
	if err != nil {
		return nil, err
	}
	for _, slotNumber := range req.SlotNumbers {
		if holder, ok := held[slotNumber]; ok && holder != actor.UserID {
			return nil, apperrors.Conflict(fmt.Sprintf("slot %s is currently held by another user", slotNumber))
		}
	}

	collisions, err := s.repo.CountCollisions(ctx, req.AreaID, req.SlotNumbers, req.StartTime, req.EndTime, now, "")
	if err != nil {
		return nil, apperrors.Internal("failed to check slot collisions", err)
	}
	if collisions > 0 {
		return nil, apperrors.Conflict("one or more slots are already booked for this window")
	}

	entryToken, err := s.uniqueToken(ctx, repository.EntryToken)
	if err != nil {
		return nil, err
	}
	exitToken, err := s.uniqueToken(ctx, repository.ExitToken)
	if err != nil {
		return nil, err
	}

	hours := durationHours(req.StartTime, req.EndTime)
	booking := &model.Booking{
		UserID:        actor.UserID,
		AreaID:        area.ID,
		AreaName:      area.Name,
		SlotIDs:       slotIDs,
		Spots:         req.SlotNumbers,
		VehicleNumber: actor.VehicleNumber,
		StartTime:     req.StartTime.UTC(),
		EndTime:       req.EndTime.UTC(),
		GraceEnd:      s.policy.GraceEnd(req.StartTime.UTC()),
		Duration:      hours,
		Amount:        s.pricing.Amount(area.Price, req.SlotNumbers, hours, actor.Staff()),
		Status:        model.StatusPendingPayment,
		EntryToken:    entryToken,
		ExitToken:     exitToken,
		CreatedAt:     now,
	}

	if _, err := s.repo.Insert(ctx, booking); err != nil {
		return nil, apperrors.Internal("failed to create booking", err)
	}

	updatedArea, err := s.areas.AdjustOccupancy(ctx, area.ID, len(req.SlotNumbers))
	if err != nil {
		// Area filled up between the collision check and the increment:
		// undo the insert so the slots are not phantom-reserved.
		if delErr := s.repo.Delete(ctx, booking.ID); delErr != nil {
			s.log.Error("failed to roll back booking after occupancy conflict",
				"booking_id", booking.ID, "error", delErr)
		}
		return nil, err
	}

	// The booking now owns the slots; the selection locks have done
	// their job.
	if err := s.locks.ReleaseAllFor(ctx, area.ID, actor.UserID); err != nil {
		s.log.Warn("failed to release selection locks after booking", "error", err)
	}
	s.publisher.PublishAvailability(ctx, updatedArea)

	s.log.Info("booking created",
		"booking_id", booking.ID,
		"user_id", actor.UserID,
		"area_id", area.ID,
		"slots", strings.Join(req.SlotNumbers, ","),
		"amount", booking.Amount,
	)
	return booking, nil
}

func (s *bookingService) ConfirmPayment(ctx context.Context, actor model.Actor, bookingID string) (*model.Booking, error) {
	booking, err := s.ownedBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Transition(ctx, booking.ID,
		[]model.BookingStatus{model.StatusPendingPayment},
		model.StatusConfirmed, nil)
	if err != nil {
		return nil, s.transitionError(err, "booking is not awaiting payment")
	}

	s.notify(ctx, updated.UserID, fmt.Sprintf(
		"Payment received. Booking at %s for slot(s) %s is confirmed. Entry token: %s",
		updated.AreaName, strings.Join(updated.Spots, ", "), updated.EntryToken))
	return updated, nil
}

// CheckIn activates a booking from a gate scan. The gate operator must
// manage the booking's area.
func (s *bookingService) CheckIn(ctx context.Context, actor model.Actor, req *validator.GateRequest) (*model.Booking, error) {
	booking, err := s.gateBooking(ctx, actor, req, repository.EntryToken)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.StatusActive {
		return nil, apperrors.InvalidState("vehicle is already checked in")
	}

	now := s.now().UTC()
	updated, err := s.repo.Transition(ctx, booking.ID,
		[]model.BookingStatus{model.StatusConfirmed, model.StatusPendingPayment},
		model.StatusActive,
		bson.M{"check_in_time": now})
	if err != nil {
		return nil, s.transitionError(err, "booking cannot be checked in from its current status")
	}

	s.notify(ctx, updated.UserID, fmt.Sprintf(
		"Checked in at %s, slot(s) %s. Booked until %s.",
		updated.AreaName, strings.Join(updated.Spots, ", "),
		updated.EndTime.Format(time.RFC3339)))
	return updated, nil
}

// CheckOut completes a booking, charging the overstay penalty when the
// vehicle leaves after its end time.
func (s *bookingService) CheckOut(ctx context.Context, actor model.Actor, req *validator.GateRequest) (*model.Booking, error) {
	booking, err := s.gateBooking(ctx, actor, req, repository.ExitToken)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.StatusCompleted {
		return nil, apperrors.InvalidState("vehicle is already checked out")
	}

	area, err := s.areas.Get(ctx, booking.AreaID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	overdueHours := timepolicy.OverstayHours(booking.EndTime, now)
	penalty := 0.0
	if overdueHours > 0 {
		penalty = s.pricing.OverstayPenalty(area.Price, overdueHours)
	}

	updated, err := s.repo.Transition(ctx, booking.ID,
		[]model.BookingStatus{model.StatusActive},
		model.StatusCompleted,
		bson.M{
			"check_out_time": now,
			"penalty_amount": penalty,
			"overstayed":     overdueHours > 0,
			"amount":         pricing.Round2(booking.Amount + penalty),
		})
	if err != nil {
		return nil, s.transitionError(err, "booking is not active")
	}

	s.releaseOccupancy(ctx, updated)

	message := fmt.Sprintf("Checked out from %s. Total charged: %.2f.", updated.AreaName, updated.Amount)
	if updated.Overstayed {
		message = fmt.Sprintf("Checked out from %s. Overstay penalty of %.2f applied; total charged: %.2f.",
			updated.AreaName, updated.PenaltyAmount, updated.Amount)
	}
	s.notify(ctx, updated.UserID, message)
	return updated, nil
}

// Cancel lets the owner abandon a booking before check-in. A paid
// booking keeps a cancelled record and refunds all but the cancellation
// fee; an unpaid one was never charged, so its record is deleted
// outright.
func (s *bookingService) Cancel(ctx context.Context, actor model.Actor, bookingID string) (*model.Booking, error) {
	booking, err := s.ownedBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, apperrors.InvalidState("booking can no longer be cancelled")
	}

	updated, err := s.repo.Transition(ctx, booking.ID,
		[]model.BookingStatus{model.StatusConfirmed},
		model.StatusCancelledByUser,
		bson.M{
			"refund_amount": s.pricing.Refund(booking.Amount),
			"cancel_reason": "Cancelled by user",
		})
	if errors.Is(err, bookingerrors.ErrStatusConflict) {
		return s.cancelPending(ctx, booking)
	}
	if err != nil {
		return nil, s.transitionError(err, "booking can no longer be cancelled")
	}

	s.releaseOccupancy(ctx, updated)
	s.notify(ctx, updated.UserID, fmt.Sprintf(
		"Booking at %s cancelled. Refund of %.2f issued.", updated.AreaName, updated.RefundAmount))
	return updated, nil
}

// cancelPending removes an unpaid booking. The delete is guarded on the
// Pending Payment status, so a payment confirmation racing the cancel
// keeps the record and the cancel fails cleanly.
func (s *bookingService) cancelPending(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	deleted, err := s.repo.DeletePending(ctx, booking.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to delete booking", err)
	}
	if !deleted {
		return nil, apperrors.InvalidState("booking can no longer be cancelled")
	}

	s.releaseOccupancy(ctx, booking)
	s.notify(ctx, booking.UserID, fmt.Sprintf("Booking at %s cancelled.", booking.AreaName))

	// The stored record is gone; the returned copy reflects the outcome.
	booking.Status = model.StatusCancelledByUser
	booking.CancelReason = "Cancelled by user"
	return booking, nil
}

// Extend pushes the end time out when the tail window is free on every
// booked slot.
func (s *bookingService) Extend(ctx context.Context, actor model.Actor, bookingID string, req *validator.ExtendBookingRequest) (*model.Booking, error) {
	if err := s.validator.ValidateExtend(req); err != nil {
		return nil, err
	}
	booking, err := s.ownedBooking(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.StatusActive && booking.Status != model.StatusConfirmed {
		return nil, apperrors.InvalidState(fmt.Sprintf("cannot extend a booking in status %q", booking.Status))
	}
	newEnd := req.NewEndTime.UTC()
	if !newEnd.After(booking.EndTime) {
		return nil, apperrors.InvalidInput("new end time must be after the current end time")
	}

	now := s.now().UTC()
	collisions, err := s.repo.CountCollisions(ctx, booking.AreaID, booking.Spots,
		booking.EndTime, newEnd, now, booking.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to check slot collisions", err)
	}
	if collisions > 0 {
		return nil, apperrors.Conflict("a later booking blocks the extension")
	}

	area, err := s.areas.Get(ctx, booking.AreaID)
	if err != nil {
		return nil, err
	}
	extraHours := durationHours(booking.EndTime, newEnd)
	extra := s.pricing.Amount(area.Price, booking.Spots, extraHours, actor.Staff())

	updated, err := s.repo.ExtendEnd(ctx, booking.ID,
		[]model.BookingStatus{model.StatusActive, model.StatusConfirmed},
		newEnd, booking.Duration+extraHours, pricing.Round2(booking.Amount+extra))
	if err != nil {
		return nil, s.transitionError(err, "booking can no longer be extended")
	}

	s.notify(ctx, updated.UserID, fmt.Sprintf(
		"Booking at %s extended until %s. Additional charge: %.2f.",
		updated.AreaName, newEnd.Format(time.RFC3339), extra))
	return updated, nil
}

func (s *bookingService) Get(ctx context.Context, actor model.Actor, bookingID string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID && !actor.ManagesArea(booking.AreaID) {
		return nil, apperrors.Forbidden("you do not have access to this booking")
	}
	return booking, nil
}

func (s *bookingService) ListForUser(ctx context.Context, actor model.Actor, limit int, offset int64) ([]*model.Booking, int64, error) {
	bookings, total, err := s.repo.FindByUser(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to list bookings", err)
	}
	return bookings, total, nil
}

func (s *bookingService) findBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("booking", bookingID)
		}
		return nil, apperrors.Internal("failed to load booking", err)
	}
	return booking, nil
}

func (s *bookingService) ownedBooking(ctx context.Context, actor model.Actor, bookingID string) (*model.Booking, error) {
	booking, err := s.findBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID {
		return nil, apperrors.Forbidden("you do not own this booking")
	}
	return booking, nil
}

func (s *bookingService) gateBooking(ctx context.Context, actor model.Actor, req *validator.GateRequest, kind repository.TokenKind) (*model.Booking, error) {
	if err := s.validator.ValidateGate(req); err != nil {
		return nil, err
	}
	if !actor.Staff() {
		return nil, apperrors.Forbidden("gate operations require a staff account")
	}
	booking, err := s.repo.FindByToken(ctx, req.VehicleNumber, req.Token, kind)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFound("booking for this vehicle and token")
		}
		return nil, apperrors.Internal("failed to load booking", err)
	}
	if !actor.ManagesArea(booking.AreaID) {
		return nil, apperrors.Forbidden("you do not manage this parking area")
	}
	return booking, nil
}

// releaseOccupancy frees the booking's slots and announces the new
// availability. Failures are logged, not surfaced: the booking state has
// already settled and failing the caller would not undo it.
func (s *bookingService) releaseOccupancy(ctx context.Context, booking *model.Booking) {
	area, err := s.areas.AdjustOccupancy(ctx, booking.AreaID, -len(booking.Spots))
	if err != nil {
		s.log.Error("failed to release occupancy",
			"booking_id", booking.ID, "area_id", booking.AreaID, "error", err)
		return
	}
	s.publisher.PublishAvailability(ctx, area)
}

func (s *bookingService) notify(ctx context.Context, userID, message string) {
	if err := s.notifier.Notify(ctx, userID, message); err != nil {
		s.log.Warn("failed to deliver notification", "user_id", userID, "error", err)
	}
}

func (s *bookingService) transitionError(err error, invalidStateMessage string) error {
	switch {
	case errors.Is(err, bookingerrors.ErrNotFound):
		return apperrors.NotFound("booking")
	case errors.Is(err, bookingerrors.ErrStatusConflict):
		return apperrors.InvalidState(invalidStateMessage)
	default:
		return apperrors.Internal("failed to update booking", err)
	}
}

func (s *bookingService) uniqueToken(ctx context.Context, kind repository.TokenKind) (string, error) {
	for attempt := 0; attempt < tokenAttempts; attempt++ {
		token := newToken()
		exists, err := s.repo.TokenExists(ctx, kind, token)
		if err != nil {
			return "", apperrors.Internal("failed to generate gate token", err)
		}
		if !exists {
			return token, nil
		}
	}
	return "", apperrors.Internal("failed to generate a unique gate token", nil)
}

// newToken produces the 8-character uppercase hex token printed on gate
// passes.
func newToken() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}

func resolveSlotIDs(slots []*model.Slot, slotNumbers []string) ([]string, error) {
	byNumber := make(map[string]string, len(slots))
	for _, slot := range slots {
		byNumber[slot.SlotNumber] = slot.ID
	}
	ids := make([]string, len(slotNumbers))
	for i, slotNumber := range slotNumbers {
		id, ok := byNumber[slotNumber]
		if !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("slot %s does not exist in this area", slotNumber))
		}
		ids[i] = id
	}
	return ids, nil
}

func durationHours(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours()))
}
