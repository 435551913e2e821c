package model

import (
	"strconv"
	"strings"
)

// Slot is one physical parking space. Slots are immutable after
// provisioning; area sizing is fixed at creation time.
type Slot struct {
	ID         string `json:"id,omitempty" bson:"_id,omitempty"`
	AreaID     string `json:"area_id" bson:"area_id" validate:"required,mongodb"`
	Level      int    `json:"level" bson:"level" validate:"min=1"`
	SlotNumber string `json:"slot_number" bson:"slot_number" validate:"required"`
	IsBike     bool   `json:"is_bike" bson:"is_bike"`
	IsEV       bool   `json:"is_ev" bson:"is_ev"`
	IsHandicap bool   `json:"is_handicap" bson:"is_handicap"`
}

// SlotViewStatus classifies what a viewer can do with a slot for a given
// window, in priority order: Occupied beats Locked beats Selected.
type SlotViewStatus string

const (
	SlotOccupied  SlotViewStatus = "Occupied"
	SlotLocked    SlotViewStatus = "Locked"
	SlotSelected  SlotViewStatus = "Selected"
	SlotAvailable SlotViewStatus = "Available"
)

// Slot numbers follow the provisioning scheme "{category}-{number}"
// (e.g. "B-03", "C-12") or "L{level}-{category}{number}" (e.g. "L2-C07").
// Preference-based notifications resolve the level by parsing this scheme,
// so it must not change.

// IsBikeSlotNumber reports whether a slot number names a bike slot.
func IsBikeSlotNumber(slotNumber string) bool {
	return strings.HasPrefix(slotNumber, "B-")
}

// SlotLevel extracts the level from a slot number, defaulting to 1 for
// slots without a level segment (bike and legacy car slots).
func SlotLevel(slotNumber string) int {
	prefix, _, found := strings.Cut(slotNumber, "-")
	if !found {
		return 1
	}
	if level, err := strconv.Atoi(strings.TrimPrefix(prefix, "L")); err == nil && level >= 1 {
		return level
	}
	return 1
}
