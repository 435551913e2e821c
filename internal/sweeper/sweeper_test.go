package sweeper

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	bookingerrors "parkease/internal/bookings/errors"
	"parkease/internal/bookings/repository"
	"parkease/internal/pricing"
	"parkease/internal/timepolicy"
	"parkease/pkg/logger"
	"parkease/pkg/model"
)

type mockBookingRepo struct {
	repository.BookingRepository

	noShowFn   func(ctx context.Context, now time.Time, areaID string) ([]*model.Booking, error)
	reminderFn func(ctx context.Context, now time.Time, window time.Duration) ([]*model.Booking, error)
	transFn    func(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, set bson.M) (*model.Booking, error)
	markFn     func(ctx context.Context, id string) (bool, error)
}

func (m *mockBookingRepo) FindNoShowCandidates(ctx context.Context, now time.Time, areaID string) ([]*model.Booking, error) {
	return m.noShowFn(ctx, now, areaID)
}

func (m *mockBookingRepo) FindReminderCandidates(ctx context.Context, now time.Time, window time.Duration) ([]*model.Booking, error) {
	return m.reminderFn(ctx, now, window)
}

func (m *mockBookingRepo) Transition(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, set bson.M) (*model.Booking, error) {
	return m.transFn(ctx, id, from, to, set)
}

func (m *mockBookingRepo) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	return m.markFn(ctx, id)
}

type mockAreas struct {
	adjustFn func(ctx context.Context, areaID string, delta int) (*model.ParkingArea, error)
}

func (m *mockAreas) Create(ctx context.Context, area *model.ParkingArea) (*model.ParkingArea, error) {
	panic("not used")
}

func (m *mockAreas) Get(ctx context.Context, id string) (*model.ParkingArea, error) {
	panic("not used")
}

func (m *mockAreas) List(ctx context.Context) ([]*model.ParkingArea, error) {
	panic("not used")
}

func (m *mockAreas) Slots(ctx context.Context, areaID string) ([]*model.Slot, error) {
	panic("not used")
}

func (m *mockAreas) AdjustOccupancy(ctx context.Context, areaID string, delta int) (*model.ParkingArea, error) {
	return m.adjustFn(ctx, areaID, delta)
}

type mockLocks struct {
	purgeFn func(ctx context.Context) (int64, error)
}

func (m *mockLocks) Acquire(ctx context.Context, areaID, slotNumber, userID string) (*model.SlotLock, error) {
	panic("not used")
}

func (m *mockLocks) Release(ctx context.Context, areaID, slotNumber, userID string) error {
	panic("not used")
}

func (m *mockLocks) ReleaseAllFor(ctx context.Context, areaID, userID string) error {
	panic("not used")
}

func (m *mockLocks) PurgeExpired(ctx context.Context) (int64, error) {
	if m.purgeFn != nil {
		return m.purgeFn(ctx)
	}
	return 0, nil
}

func (m *mockLocks) LocksFor(ctx context.Context, areaID string) (map[string]string, error) {
	panic("not used")
}

type mockNotifications struct {
	notified    []string
	subscribers map[int][]string
}

func (m *mockNotifications) Notify(ctx context.Context, userID, message string) error {
	m.notified = append(m.notified, userID)
	return nil
}

func (m *mockNotifications) List(ctx context.Context, userID string) ([]*model.Notification, error) {
	panic("not used")
}

func (m *mockNotifications) MarkAllRead(ctx context.Context, userID string) error {
	panic("not used")
}

func (m *mockNotifications) Subscribe(ctx context.Context, userID, areaID string, level int) error {
	panic("not used")
}

func (m *mockNotifications) Unsubscribe(ctx context.Context, userID, areaID string, level int) error {
	panic("not used")
}

func (m *mockNotifications) SubscribersFor(ctx context.Context, areaID string, level int) ([]string, error) {
	return m.subscribers[level], nil
}

type mockPublisher struct {
	availability int
}

func (m *mockPublisher) PublishAvailability(ctx context.Context, area *model.ParkingArea) {
	m.availability++
}

func (m *mockPublisher) PublishUserNotified(ctx context.Context, userID string) {}

var sweepNow = time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)

func newTestSweeper(repo *mockBookingRepo, areas *mockAreas, notifications *mockNotifications, publisher *mockPublisher) *Sweeper {
	policy := timepolicy.Policy{
		GracePeriod:       15 * time.Minute,
		ReminderWindow:    15 * time.Minute,
		LockTTL:           5 * time.Minute,
		DefaultViewWindow: time.Hour,
	}
	prices := pricing.Policy{
		BikeRateMultiplier:     0.5,
		StaffRateMultiplier:    0.25,
		CancellationFeeRate:    0.10,
		OverstayRateMultiplier: 2.0,
	}
	return &Sweeper{
		bookings:      repo,
		areas:         areas,
		locks:         &mockLocks{},
		notifications: notifications,
		publisher:     publisher,
		pricing:       prices,
		policy:        policy,
		now:           func() time.Time { return sweepNow },
		log:           logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT}),
	}
}

func TestRunNoShowsCancelsAndReleases(t *testing.T) {
	booking := &model.Booking{
		ID:       "b-1",
		UserID:   "user-1",
		AreaID:   "area-1",
		AreaName: "Central",
		Spots:    []string{"L2-C03"},
		Amount:   40,
		Status:   model.StatusConfirmed,
	}
	released := 0
	repo := &mockBookingRepo{
		noShowFn: func(ctx context.Context, now time.Time, areaID string) ([]*model.Booking, error) {
			return []*model.Booking{booking}, nil
		},
		transFn: func(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, set bson.M) (*model.Booking, error) {
			if to != model.StatusCancelledNoShow {
				t.Errorf("transition to %s, want %s", to, model.StatusCancelledNoShow)
			}
			if refund := set["refund_amount"].(float64); refund != 36 {
				t.Errorf("refund = %v, want 36", refund)
			}
			updated := *booking
			updated.Status = to
			updated.RefundAmount = 36
			return &updated, nil
		},
	}
	areas := &mockAreas{
		adjustFn: func(ctx context.Context, areaID string, delta int) (*model.ParkingArea, error) {
			released = -delta
			return &model.ParkingArea{ID: areaID, Occupied: 0, Capacity: 10}, nil
		},
	}
	notifications := &mockNotifications{subscribers: map[int][]string{2: {"watcher-1", "user-1"}}}
	publisher := &mockPublisher{}

	cancelled, err := newTestSweeper(repo, areas, notifications, publisher).RunNoShows(context.Background(), "")
	if err != nil {
		t.Fatalf("RunNoShows returned error: %v", err)
	}
	if cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", cancelled)
	}
	if released != 1 {
		t.Errorf("released %d slots, want 1", released)
	}
	if publisher.availability != 1 {
		t.Errorf("published %d availability events, want 1", publisher.availability)
	}
	// Owner gets the cancellation notice, watcher-1 the vacancy ping; the
	// owner never gets the vacancy ping for their own lost slot.
	if len(notifications.notified) != 2 {
		t.Fatalf("notified %v, want owner + one subscriber", notifications.notified)
	}
}

func TestRunNoShowsSkipsRacedBookings(t *testing.T) {
	repo := &mockBookingRepo{
		noShowFn: func(ctx context.Context, now time.Time, areaID string) ([]*model.Booking, error) {
			return []*model.Booking{{ID: "b-1", Status: model.StatusConfirmed}}, nil
		},
		transFn: func(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, set bson.M) (*model.Booking, error) {
			// User checked in between the scan and the guarded update.
			return nil, bookingerrors.ErrStatusConflict
		},
	}
	areas := &mockAreas{
		adjustFn: func(ctx context.Context, areaID string, delta int) (*model.ParkingArea, error) {
			t.Fatal("occupancy must not change for a raced booking")
			return nil, nil
		},
	}
	notifications := &mockNotifications{}
	publisher := &mockPublisher{}

	cancelled, err := newTestSweeper(repo, areas, notifications, publisher).RunNoShows(context.Background(), "")
	if err != nil {
		t.Fatalf("RunNoShows returned error: %v", err)
	}
	if cancelled != 0 {
		t.Errorf("cancelled = %d, want 0", cancelled)
	}
	if len(notifications.notified) != 0 {
		t.Errorf("notified %v, want none", notifications.notified)
	}
}

func TestRunNoShowsScopesToArea(t *testing.T) {
	scannedArea := "unset"
	repo := &mockBookingRepo{
		noShowFn: func(ctx context.Context, now time.Time, areaID string) ([]*model.Booking, error) {
			scannedArea = areaID
			return nil, nil
		},
	}
	sweeper := newTestSweeper(repo, &mockAreas{}, &mockNotifications{}, &mockPublisher{})

	if _, err := sweeper.RunNoShows(context.Background(), "area-7"); err != nil {
		t.Fatalf("RunNoShows returned error: %v", err)
	}
	if scannedArea != "area-7" {
		t.Errorf("candidate scan scoped to %q, want area-7", scannedArea)
	}

	if _, err := sweeper.RunNoShows(context.Background(), ""); err != nil {
		t.Fatalf("RunNoShows returned error: %v", err)
	}
	if scannedArea != "" {
		t.Errorf("candidate scan scoped to %q, want all areas", scannedArea)
	}
}

func TestSweepReportsSummary(t *testing.T) {
	booking := &model.Booking{
		ID: "b-1", UserID: "user-1", AreaID: "area-1", AreaName: "Central",
		Spots: []string{"C-01"}, Amount: 40, Status: model.StatusConfirmed,
	}
	repo := &mockBookingRepo{
		noShowFn: func(ctx context.Context, now time.Time, areaID string) ([]*model.Booking, error) {
			return []*model.Booking{booking}, nil
		},
		transFn: func(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, set bson.M) (*model.Booking, error) {
			updated := *booking
			updated.Status = to
			return &updated, nil
		},
		reminderFn: func(ctx context.Context, now time.Time, window time.Duration) ([]*model.Booking, error) {
			return nil, nil
		},
	}
	areas := &mockAreas{
		adjustFn: func(ctx context.Context, areaID string, delta int) (*model.ParkingArea, error) {
			return &model.ParkingArea{ID: areaID, Capacity: 10}, nil
		},
	}
	sweeper := newTestSweeper(repo, areas, &mockNotifications{}, &mockPublisher{})
	sweeper.locks = &mockLocks{purgeFn: func(ctx context.Context) (int64, error) { return 3, nil }}

	summary := sweeper.Sweep(context.Background(), "area-1")
	if summary.LocksPurged != 3 {
		t.Errorf("locks purged = %d, want 3", summary.LocksPurged)
	}
	if summary.NoShowsCancelled != 1 {
		t.Errorf("no-shows cancelled = %d, want 1", summary.NoShowsCancelled)
	}
	if summary.RemindersSent != 0 {
		t.Errorf("reminders sent = %d, want 0", summary.RemindersSent)
	}
}

func TestRunRemindersFiresOnce(t *testing.T) {
	booking := &model.Booking{
		ID:       "b-1",
		UserID:   "user-1",
		AreaName: "Central",
		EndTime:  sweepNow.Add(10 * time.Minute),
		Status:   model.StatusActive,
	}
	flipped := false
	repo := &mockBookingRepo{
		reminderFn: func(ctx context.Context, now time.Time, window time.Duration) ([]*model.Booking, error) {
			return []*model.Booking{booking}, nil
		},
		markFn: func(ctx context.Context, id string) (bool, error) {
			if flipped {
				return false, nil
			}
			flipped = true
			return true, nil
		},
	}
	notifications := &mockNotifications{}
	sweeper := newTestSweeper(repo, &mockAreas{}, notifications, &mockPublisher{})

	for i := 0; i < 3; i++ {
		if _, err := sweeper.RunReminders(context.Background()); err != nil {
			t.Fatalf("RunReminders returned error: %v", err)
		}
	}
	if len(notifications.notified) != 1 {
		t.Errorf("reminder sent %d times, want exactly once", len(notifications.notified))
	}
}
