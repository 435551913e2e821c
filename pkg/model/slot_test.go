package model

import "testing"

func TestSlotLevel(t *testing.T) {
	tests := []struct {
		slotNumber string
		want       int
	}{
		{"L2-C07", 2},
		{"L10-C01", 10},
		{"C-12", 1},
		{"B-03", 1},
		{"L0-C01", 1},
		{"garbage", 1},
		{"", 1},
	}
	for _, tt := range tests {
		if got := SlotLevel(tt.slotNumber); got != tt.want {
			t.Errorf("SlotLevel(%q) = %d, want %d", tt.slotNumber, got, tt.want)
		}
	}
}

func TestIsBikeSlotNumber(t *testing.T) {
	if !IsBikeSlotNumber("B-03") {
		t.Error("B-03 should be a bike slot")
	}
	for _, slotNumber := range []string{"C-03", "L2-C07", "L1-B01", ""} {
		if IsBikeSlotNumber(slotNumber) {
			t.Errorf("%q should not be a bike slot", slotNumber)
		}
	}
}
