package service

import (
	"context"
	"testing"
	"time"

	"parkease/pkg/logger"
	"parkease/pkg/model"
)

type mockAreaService struct {
	getFn   func(ctx context.Context, id string) (*model.ParkingArea, error)
	slotsFn func(ctx context.Context, areaID string) ([]*model.Slot, error)
}

func (m *mockAreaService) Create(ctx context.Context, area *model.ParkingArea) (*model.ParkingArea, error) {
	panic("not used")
}

func (m *mockAreaService) Get(ctx context.Context, id string) (*model.ParkingArea, error) {
	return m.getFn(ctx, id)
}

func (m *mockAreaService) List(ctx context.Context) ([]*model.ParkingArea, error) {
	panic("not used")
}

func (m *mockAreaService) Slots(ctx context.Context, areaID string) ([]*model.Slot, error) {
	return m.slotsFn(ctx, areaID)
}

func (m *mockAreaService) AdjustOccupancy(ctx context.Context, areaID string, delta int) (*model.ParkingArea, error) {
	panic("not used")
}

type mockBookingReader struct {
	findFn func(ctx context.Context, areaID string) ([]*model.Booking, error)
}

func (m *mockBookingReader) FindReservingByArea(ctx context.Context, areaID string) ([]*model.Booking, error) {
	return m.findFn(ctx, areaID)
}

type mockLockService struct {
	purged  bool
	locksFn func(ctx context.Context, areaID string) (map[string]string, error)
}

func (m *mockLockService) Acquire(ctx context.Context, areaID, slotNumber, userID string) (*model.SlotLock, error) {
	panic("not used")
}

func (m *mockLockService) Release(ctx context.Context, areaID, slotNumber, userID string) error {
	panic("not used")
}

func (m *mockLockService) ReleaseAllFor(ctx context.Context, areaID, userID string) error {
	panic("not used")
}

func (m *mockLockService) PurgeExpired(ctx context.Context) (int64, error) {
	m.purged = true
	return 0, nil
}

func (m *mockLockService) LocksFor(ctx context.Context, areaID string) (map[string]string, error) {
	return m.locksFn(ctx, areaID)
}

var (
	resolveNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	testArea   = &model.ParkingArea{ID: "area-1", Name: "Central", Capacity: 4, Price: 20}
	testSlots  = []*model.Slot{
		{AreaID: "area-1", Level: 1, SlotNumber: "C-01"},
		{AreaID: "area-1", Level: 1, SlotNumber: "C-02"},
		{AreaID: "area-1", Level: 1, SlotNumber: "C-03"},
		{AreaID: "area-1", Level: 1, SlotNumber: "B-01", IsBike: true},
	}
)

func newResolver(bookings []*model.Booking, held map[string]string, locks *mockLockService) AvailabilityService {
	if locks == nil {
		locks = &mockLockService{}
	}
	if locks.locksFn == nil {
		locks.locksFn = func(ctx context.Context, areaID string) (map[string]string, error) {
			return held, nil
		}
	}
	svc := &availabilityService{
		areas: &mockAreaService{
			getFn: func(ctx context.Context, id string) (*model.ParkingArea, error) {
				return testArea, nil
			},
			slotsFn: func(ctx context.Context, areaID string) ([]*model.Slot, error) {
				return testSlots, nil
			},
		},
		bookings: &mockBookingReader{
			findFn: func(ctx context.Context, areaID string) ([]*model.Booking, error) {
				return bookings, nil
			},
		},
		locks: locks,
		now:   func() time.Time { return resolveNow },
		log:   logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT}),
	}
	return svc
}

func statusOf(t *testing.T, view *View, slotNumber string) model.SlotViewStatus {
	t.Helper()
	for _, slot := range view.Slots {
		if slot.SlotNumber == slotNumber {
			return slot.Status
		}
	}
	t.Fatalf("slot %q not in view", slotNumber)
	return ""
}

func TestResolveClassification(t *testing.T) {
	window := Window{Start: resolveNow, End: resolveNow.Add(2 * time.Hour)}
	bookings := []*model.Booking{
		{
			Status:    model.StatusConfirmed,
			Spots:     []string{"C-01"},
			StartTime: resolveNow.Add(time.Hour),
			EndTime:   resolveNow.Add(3 * time.Hour),
		},
	}
	held := map[string]string{
		"C-01": "viewer", // lock under a reservation must not surface
		"C-02": "viewer",
		"C-03": "someone-else",
	}
	locks := &mockLockService{}

	view, err := newResolver(bookings, held, locks).Resolve(context.Background(), "area-1", window, "viewer")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !locks.purged {
		t.Error("expected expired locks to be purged before resolving")
	}

	cases := []struct {
		slot string
		want model.SlotViewStatus
	}{
		{"C-01", model.SlotOccupied},
		{"C-02", model.SlotSelected},
		{"C-03", model.SlotLocked},
		{"B-01", model.SlotAvailable},
	}
	for _, tc := range cases {
		if got := statusOf(t, view, tc.slot); got != tc.want {
			t.Errorf("slot %s status = %s, want %s", tc.slot, got, tc.want)
		}
	}
}

func TestResolveOverstayedBookingStillOccupies(t *testing.T) {
	// Active booking whose end time passed an hour ago: until checkout the
	// car is still in the slot, so a window starting now sees it occupied.
	window := Window{Start: resolveNow, End: resolveNow.Add(time.Hour)}
	bookings := []*model.Booking{
		{
			Status:    model.StatusActive,
			Spots:     []string{"C-02"},
			StartTime: resolveNow.Add(-3 * time.Hour),
			EndTime:   resolveNow.Add(-time.Hour),
		},
	}

	view, err := newResolver(bookings, nil, nil).Resolve(context.Background(), "area-1", window, "viewer")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := statusOf(t, view, "C-02"); got != model.SlotOccupied {
		t.Errorf("overstayed slot status = %s, want %s", got, model.SlotOccupied)
	}
}

func TestResolveBackToBackWindowsDoNotOverlap(t *testing.T) {
	// Booking ends exactly when the window starts: half-open intervals, no
	// conflict.
	window := Window{Start: resolveNow.Add(2 * time.Hour), End: resolveNow.Add(4 * time.Hour)}
	bookings := []*model.Booking{
		{
			Status:    model.StatusConfirmed,
			Spots:     []string{"C-01"},
			StartTime: resolveNow,
			EndTime:   resolveNow.Add(2 * time.Hour),
		},
	}

	view, err := newResolver(bookings, nil, nil).Resolve(context.Background(), "area-1", window, "viewer")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got := statusOf(t, view, "C-01"); got != model.SlotAvailable {
		t.Errorf("back-to-back slot status = %s, want %s", got, model.SlotAvailable)
	}
}

func TestResolveRejectsInvertedWindow(t *testing.T) {
	window := Window{Start: resolveNow.Add(time.Hour), End: resolveNow}
	_, err := newResolver(nil, nil, nil).Resolve(context.Background(), "area-1", window, "viewer")
	if err == nil {
		t.Fatal("expected error for inverted window")
	}
}
