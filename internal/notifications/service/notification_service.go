package service

import (
	"context"
	"time"

	"parkease/internal/events"
	"parkease/internal/notifications/repository"
	apperrors "parkease/pkg/errors"
	"parkease/pkg/logger"
	"parkease/pkg/model"
)

const defaultListLimit = 50

type NotificationService interface {
	Notify(ctx context.Context, userID, message string) error
	List(ctx context.Context, userID string) ([]*model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	Subscribe(ctx context.Context, userID, areaID string, level int) error
	Unsubscribe(ctx context.Context, userID, areaID string, level int) error
	SubscribersFor(ctx context.Context, areaID string, level int) ([]string, error)
}

type notificationService struct {
	repo      repository.NotificationRepository
	publisher events.Publisher
	now       func() time.Time
	log       *logger.Logger
}

func NewNotificationService(repo repository.NotificationRepository, publisher events.Publisher, log *logger.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
		log:       log,
	}
}

// Notify stores the message and then pings the user's event stream. The
// store is the source of truth; the event only tells a connected client
// to refetch.
func (s *notificationService) Notify(ctx context.Context, userID, message string) error {
	notification := &model.Notification{
		UserID:    userID,
		Message:   message,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, notification); err != nil {
		return apperrors.Internal("failed to store notification", err)
	}
	s.publisher.PublishUserNotified(ctx, userID)
	return nil
}

func (s *notificationService) List(ctx context.Context, userID string) ([]*model.Notification, error) {
	notifications, err := s.repo.FindByUser(ctx, userID, defaultListLimit)
	if err != nil {
		return nil, apperrors.Internal("failed to list notifications", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) error {
	if _, err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return apperrors.Internal("failed to mark notifications read", err)
	}
	return nil
}

func (s *notificationService) Subscribe(ctx context.Context, userID, areaID string, level int) error {
	if level < 1 {
		return apperrors.InvalidInput("level must be at least 1")
	}
	preference := &model.SlotPreference{
		UserID:    userID,
		AreaID:    areaID,
		Level:     level,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.UpsertPreference(ctx, preference); err != nil {
		return apperrors.Internal("failed to save slot preference", err)
	}
	return nil
}

func (s *notificationService) Unsubscribe(ctx context.Context, userID, areaID string, level int) error {
	if err := s.repo.DeletePreference(ctx, userID, areaID, level); err != nil {
		return apperrors.Internal("failed to remove slot preference", err)
	}
	return nil
}

func (s *notificationService) SubscribersFor(ctx context.Context, areaID string, level int) ([]string, error) {
	userIDs, err := s.repo.FindSubscribers(ctx, areaID, level)
	if err != nil {
		return nil, apperrors.Internal("failed to load slot preference subscribers", err)
	}
	return userIDs, nil
}
