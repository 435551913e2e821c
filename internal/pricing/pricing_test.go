package pricing

import "testing"

var testPolicy = Policy{
	BikeRateMultiplier:     0.5,
	StaffRateMultiplier:    0.25,
	StaffDiscountEnabled:   true,
	CancellationFeeRate:    0.10,
	OverstayRateMultiplier: 2,
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name      string
		basePrice float64
		slots     []string
		hours     int
		staff     bool
		want      float64
	}{
		{"one car slot two hours", 20, []string{"L1-C01"}, 2, false, 40.00},
		{"one bike slot two hours", 20, []string{"B-01"}, 2, false, 20.00},
		{"mixed car and bike", 20, []string{"L1-C01", "B-03"}, 2, false, 60.00},
		{"legacy car naming", 20, []string{"C-05"}, 1, false, 20.00},
		{"staff discount applies", 20, []string{"L1-C01"}, 2, true, 10.00},
		{"fractional base price rounds", 33.33, []string{"B-01"}, 1, false, 16.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testPolicy.Amount(tt.basePrice, tt.slots, tt.hours, tt.staff)
			if got != tt.want {
				t.Errorf("Amount(%v, %v, %d, %v) = %.2f, want %.2f", tt.basePrice, tt.slots, tt.hours, tt.staff, got, tt.want)
			}
		})
	}
}

func TestAmountStaffDiscountDisabled(t *testing.T) {
	p := testPolicy
	p.StaffDiscountEnabled = false
	if got := p.Amount(20, []string{"L1-C01"}, 2, true); got != 40.00 {
		t.Errorf("Amount with disabled staff discount = %.2f, want 40.00", got)
	}
}

func TestRefund(t *testing.T) {
	if got := testPolicy.Refund(100); got != 90.00 {
		t.Errorf("Refund(100) = %.2f, want 90.00", got)
	}
	if got := testPolicy.Refund(33.33); got != 30.00 {
		t.Errorf("Refund(33.33) = %.2f, want 30.00", got)
	}
}

func TestOverstayPenalty(t *testing.T) {
	// 90 minutes over at rate 20 bills 2 hours at double rate.
	if got := testPolicy.OverstayPenalty(20, 2); got != 80.00 {
		t.Errorf("OverstayPenalty(20, 2) = %.2f, want 80.00", got)
	}
	if got := testPolicy.OverstayPenalty(20, 0); got != 0 {
		t.Errorf("OverstayPenalty(20, 0) = %.2f, want 0", got)
	}
}
