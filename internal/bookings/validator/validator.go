package validator

import (
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "parkease/pkg/errors"
)

// CreateBookingRequest is the payload for reserving one or more slots.
// Times are RFC 3339; the window is half-open [start, end).
type CreateBookingRequest struct {
	AreaID      string    `json:"area_id" validate:"required"`
	SlotNumbers []string  `json:"slot_numbers" validate:"required,min=1,max=5,dive,required"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
}

type ExtendBookingRequest struct {
	NewEndTime time.Time `json:"new_end_time" validate:"required"`
}

type GateRequest struct {
	VehicleNumber string `json:"vehicle_number" validate:"required"`
	Token         string `json:"token" validate:"required,len=8"`
}

type BookingValidator struct {
	validate *validator.Validate
}

func NewBookingValidator() *BookingValidator {
	return &BookingValidator{validate: validator.New()}
}

func (v *BookingValidator) ValidateCreate(req *CreateBookingRequest, now time.Time) error {
	if err := v.validate.Struct(req); err != nil {
		return apperrors.Validation("invalid booking request", fieldErrors(err))
	}
	if !req.EndTime.After(req.StartTime) {
		return apperrors.InvalidInput("end time must be after start time")
	}
	if req.StartTime.Before(now.Add(-time.Minute)) {
		return apperrors.InvalidInput("start time must not be in the past")
	}
	return nil
}

func (v *BookingValidator) ValidateExtend(req *ExtendBookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		return apperrors.Validation("invalid extend request", fieldErrors(err))
	}
	return nil
}

func (v *BookingValidator) ValidateGate(req *GateRequest) error {
	if err := v.validate.Struct(req); err != nil {
		return apperrors.Validation("invalid gate request", fieldErrors(err))
	}
	return nil
}

func fieldErrors(err error) map[string]any {
	details := make(map[string]any)
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
		return details
	}
	details["error"] = err.Error()
	return details
}
