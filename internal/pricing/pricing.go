package pricing

import (
	"math"
	"parkease/pkg/config"
	"parkease/pkg/model"
)

// Policy computes booking amounts, refunds, and penalties. The multipliers
// come from configuration rather than being baked into the booking path,
// so an operator can tune them per deployment.
type Policy struct {
	BikeRateMultiplier     float64
	StaffRateMultiplier    float64
	StaffDiscountEnabled   bool
	CancellationFeeRate    float64
	OverstayRateMultiplier float64
}

func FromConfig(cfg *config.Config) Policy {
	return Policy{
		BikeRateMultiplier:     cfg.BikeRateMultiplier,
		StaffRateMultiplier:    cfg.StaffRateMultiplier,
		StaffDiscountEnabled:   cfg.StaffDiscountEnabled,
		CancellationFeeRate:    cfg.CancellationFeeRate,
		OverstayRateMultiplier: cfg.OverstayRateMultiplier,
	}
}

// SlotRate is the hourly rate for one slot. Bike slots take less space and
// bill at a fraction of the area base rate; every other category bills at
// the full rate.
func (p Policy) SlotRate(basePrice float64, slotNumber string) float64 {
	if model.IsBikeSlotNumber(slotNumber) {
		return basePrice * p.BikeRateMultiplier
	}
	return basePrice
}

// Amount prices a set of slots for a whole-hour duration, applying the
// staff multiplier when the actor holds an operational role. Rounded to
// two decimals here, not deferred to display.
func (p Policy) Amount(basePrice float64, slotNumbers []string, hours int, staff bool) float64 {
	var total float64
	for _, slotNumber := range slotNumbers {
		total += p.SlotRate(basePrice, slotNumber) * float64(hours)
	}
	if staff && p.StaffDiscountEnabled {
		total *= p.StaffRateMultiplier
	}
	return Round2(total)
}

// Refund is the amount returned after the cancellation fee is kept.
func (p Policy) Refund(amount float64) float64 {
	return Round2(amount * (1 - p.CancellationFeeRate))
}

// OverstayPenalty bills whole overdue hours at a multiple of the area
// hourly rate.
func (p Policy) OverstayPenalty(basePrice float64, overdueHours int) float64 {
	return Round2(float64(overdueHours) * basePrice * p.OverstayRateMultiplier)
}

// Round2 rounds a currency value to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
