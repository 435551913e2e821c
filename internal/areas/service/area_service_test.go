package service

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	dbmongo "parkease/pkg/db/mongo"
	apperrors "parkease/pkg/errors"
	"parkease/pkg/logger"
	"parkease/pkg/model"
)

type mockAreaRepository struct {
	inserted      *model.ParkingArea
	insertedSlots []*model.Slot
}

func (m *mockAreaRepository) Insert(ctx context.Context, area *model.ParkingArea) (string, error) {
	m.inserted = area
	return "area-1", nil
}

func (m *mockAreaRepository) InsertSlots(ctx context.Context, slots []*model.Slot) error {
	m.insertedSlots = slots
	return nil
}

func (m *mockAreaRepository) FindByID(ctx context.Context, id string) (*model.ParkingArea, error) {
	panic("not used")
}

func (m *mockAreaRepository) FindAll(ctx context.Context) ([]*model.ParkingArea, error) {
	panic("not used")
}

func (m *mockAreaRepository) FindSlots(ctx context.Context, areaID string) ([]*model.Slot, error) {
	panic("not used")
}

func (m *mockAreaRepository) IncrementOccupied(ctx context.Context, id string, delta int) (*model.ParkingArea, error) {
	panic("not used")
}

type passthroughTxn struct{}

func (passthroughTxn) ExecuteTransaction(ctx context.Context, fn dbmongo.TransactionFunc) error {
	return fn(mongo.SessionContext(nil))
}

func TestCreateProvisionsInventory(t *testing.T) {
	repo := &mockAreaRepository{}
	svc := NewAreaService(repo, passthroughTxn{}, logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT}))

	area, err := svc.Create(context.Background(), &model.ParkingArea{
		Name:     "Central",
		Capacity: 10,
		Price:    20,
		HasBike:  true,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if area.ID != "area-1" {
		t.Errorf("area ID = %q, want area-1", area.ID)
	}
	if area.Occupied != 0 {
		t.Errorf("occupied = %d, want 0", area.Occupied)
	}
	if len(repo.insertedSlots) != 10 {
		t.Errorf("provisioned %d slots, want 10", len(repo.insertedSlots))
	}
	for _, slot := range repo.insertedSlots {
		if slot.AreaID != "area-1" {
			t.Fatalf("slot %s provisioned with area %q", slot.SlotNumber, slot.AreaID)
		}
	}
}

func TestCreateRejectsInvalidArea(t *testing.T) {
	svc := NewAreaService(&mockAreaRepository{}, passthroughTxn{}, logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT}))

	_, err := svc.Create(context.Background(), &model.ParkingArea{Name: "X", Capacity: 0})
	if !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProvisionSlotsSingleLevel(t *testing.T) {
	area := &model.ParkingArea{ID: "area-1", Capacity: 10, Levels: 1, HasBike: true, HasEV: true, HasHandicap: true}
	slots := ProvisionSlots(area)

	if len(slots) != 10 {
		t.Fatalf("provisioned %d slots, want 10", len(slots))
	}

	bikes := 0
	for _, slot := range slots {
		if slot.IsBike {
			bikes++
			if !model.IsBikeSlotNumber(slot.SlotNumber) {
				t.Errorf("bike slot has number %q", slot.SlotNumber)
			}
		}
	}
	if bikes != 3 {
		t.Errorf("provisioned %d bike slots, want 3", bikes)
	}

	byNumber := make(map[string]*model.Slot, len(slots))
	for _, slot := range slots {
		byNumber[slot.SlotNumber] = slot
	}
	if slot := byNumber["C-01"]; slot == nil || !slot.IsEV {
		t.Error("C-01 should be an EV slot")
	}
	if slot := byNumber["C-06"]; slot == nil || !slot.IsHandicap || slot.IsEV {
		t.Error("C-06 should be a handicap slot")
	}
}

func TestProvisionSlotsMultiLevel(t *testing.T) {
	area := &model.ParkingArea{ID: "area-2", Capacity: 7, Levels: 2}
	slots := ProvisionSlots(area)

	if len(slots) != 7 {
		t.Fatalf("provisioned %d slots, want 7", len(slots))
	}

	perLevel := map[int]int{}
	for _, slot := range slots {
		perLevel[slot.Level]++
		if model.SlotLevel(slot.SlotNumber) != slot.Level {
			t.Errorf("slot %q parses to level %d, stored level %d",
				slot.SlotNumber, model.SlotLevel(slot.SlotNumber), slot.Level)
		}
	}
	if perLevel[1] != 4 || perLevel[2] != 3 {
		t.Errorf("level distribution = %v, want map[1:4 2:3]", perLevel)
	}
}

func TestProvisionSlotsBikeMinimum(t *testing.T) {
	area := &model.ParkingArea{ID: "area-3", Capacity: 2, Levels: 1, HasBike: true}
	slots := ProvisionSlots(area)

	bikes := 0
	for _, slot := range slots {
		if slot.IsBike {
			bikes++
		}
	}
	if bikes != 1 {
		t.Errorf("provisioned %d bike slots, want at least 1", bikes)
	}
	if len(slots) != 2 {
		t.Errorf("provisioned %d slots, want 2", len(slots))
	}
}
