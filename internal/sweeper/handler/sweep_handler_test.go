package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parkease/internal/bookings/repository"
	lockservice "parkease/internal/locks/service"
	notificationservice "parkease/internal/notifications/service"
	"parkease/internal/pricing"
	"parkease/internal/sweeper"
	"parkease/internal/timepolicy"
	"parkease/pkg/logger"
	"parkease/pkg/middleware"
	"parkease/pkg/model"
)

// The stubs embed their interfaces and override only what an empty
// sweep touches: the candidate scans and the lock purge.

type stubBookings struct {
	repository.BookingRepository

	scannedArea string
}

func (s *stubBookings) FindNoShowCandidates(ctx context.Context, now time.Time, areaID string) ([]*model.Booking, error) {
	s.scannedArea = areaID
	return nil, nil
}

func (s *stubBookings) FindReminderCandidates(ctx context.Context, now time.Time, window time.Duration) ([]*model.Booking, error) {
	return nil, nil
}

type stubLocks struct {
	lockservice.LockService
}

func (s *stubLocks) PurgeExpired(ctx context.Context) (int64, error) {
	return 2, nil
}

type stubNotifications struct {
	notificationservice.NotificationService
}

type stubPublisher struct{}

func (s *stubPublisher) PublishAvailability(ctx context.Context, area *model.ParkingArea) {}

func (s *stubPublisher) PublishUserNotified(ctx context.Context, userID string) {}

func newSweepRequest(target string, actor model.Actor) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, nil)
	return r.WithContext(context.WithValue(r.Context(), middleware.ActorKey, actor))
}

func TestSweepAuthorization(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		actor      model.Actor
		wantStatus int
		wantArea   string
	}{
		{
			name:       "regular user rejected",
			target:     "/api/v1/sweep",
			actor:      model.Actor{UserID: "user-1", Role: model.RoleUser},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "manager scoped to own area by default",
			target:     "/api/v1/sweep",
			actor:      model.Actor{UserID: "mgr-1", Role: model.RoleManager, ManagedAreaID: "area-1"},
			wantStatus: http.StatusOK,
			wantArea:   "area-1",
		},
		{
			name:       "manager cannot sweep a foreign area",
			target:     "/api/v1/sweep?area_id=area-2",
			actor:      model.Actor{UserID: "mgr-1", Role: model.RoleManager, ManagedAreaID: "area-1"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin sweeps everywhere",
			target:     "/api/v1/sweep",
			actor:      model.Actor{UserID: "admin-1", Role: model.RoleAdmin},
			wantStatus: http.StatusOK,
			wantArea:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.New(logger.Config{Level: logger.ERROR, Format: logger.TEXT})
			bookings := &stubBookings{scannedArea: "unset"}
			sweep := sweeper.New(bookings, nil, &stubLocks{}, &stubNotifications{},
				&stubPublisher{}, pricing.Policy{}, timepolicy.Policy{}, log)
			h := NewSweepHandler(sweep, log)

			w := httptest.NewRecorder()
			h.Sweep(w, newSweepRequest(tt.target, tt.actor))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && bookings.scannedArea != tt.wantArea {
				t.Errorf("candidate scan scoped to %q, want %q", bookings.scannedArea, tt.wantArea)
			}
		})
	}
}
