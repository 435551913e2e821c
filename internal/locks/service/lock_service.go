package service

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	lockerrors "parkease/internal/locks/errors"
	"parkease/internal/locks/repository"
	"parkease/internal/timepolicy"
	apperrors "parkease/pkg/errors"
	"parkease/pkg/logger"
	"parkease/pkg/model"
)

// LockService serializes slot selection. A user acquires a short-lived
// advisory lock on a slot before paying; other users see the slot as
// unavailable until the lock expires or the booking claims it.
type LockService interface {
	Acquire(ctx context.Context, areaID, slotNumber, userID string) (*model.SlotLock, error)
	Release(ctx context.Context, areaID, slotNumber, userID string) error
	ReleaseAllFor(ctx context.Context, areaID, userID string) error
	PurgeExpired(ctx context.Context) (int64, error)
	LocksFor(ctx context.Context, areaID string) (map[string]string, error)
}

type lockService struct {
	repo   repository.LockRepository
	policy timepolicy.Policy
	now    func() time.Time
	log    *logger.Logger
}

func NewLockService(repo repository.LockRepository, policy timepolicy.Policy, log *logger.Logger) LockService {
	return &lockService{
		repo:   repo,
		policy: policy,
		now:    time.Now,
		log:    log,
	}
}

// Acquire takes the lock for userID, extending it when the same user
// already holds the slot. A live lock held by anyone else is a conflict.
func (s *lockService) Acquire(ctx context.Context, areaID, slotNumber, userID string) (*model.SlotLock, error) {
	now := s.now().UTC()
	id := model.SlotLockID(areaID, slotNumber)

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil && err != lockerrors.ErrNotFound {
		return nil, apperrors.Internal("failed to read slot lock", err)
	}

	if existing != nil {
		if existing.UserID == userID {
			lock := *existing
			lock.ExpiresAt = s.policy.LockExpiry(now)
			if _, err := s.repo.UpdateExpiry(ctx, id, userID, lock.ExpiresAt); err != nil {
				return nil, apperrors.Internal("failed to extend slot lock", err)
			}
			return &lock, nil
		}
		if !existing.Expired(now) {
			return nil, heldError(slotNumber)
		}
		// Stale lock from another user: clear it and race for the insert.
		if _, err := s.repo.Delete(ctx, id, existing.UserID); err != nil {
			return nil, apperrors.Internal("failed to clear expired slot lock", err)
		}
	}

	lock := &model.SlotLock{
		ID:         id,
		AreaID:     areaID,
		SlotNumber: slotNumber,
		UserID:     userID,
		ExpiresAt:  s.policy.LockExpiry(now),
		CreatedAt:  now,
	}
	if err := s.repo.Insert(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, heldError(slotNumber)
		}
		return nil, apperrors.Internal("failed to acquire slot lock", err)
	}
	return lock, nil
}

// Release drops the caller's own lock. Releasing a slot the caller does
// not hold is a no-op, so double-release is safe.
func (s *lockService) Release(ctx context.Context, areaID, slotNumber, userID string) error {
	id := model.SlotLockID(areaID, slotNumber)
	if _, err := s.repo.Delete(ctx, id, userID); err != nil {
		return apperrors.Internal("failed to release slot lock", err)
	}
	return nil
}

func (s *lockService) ReleaseAllFor(ctx context.Context, areaID, userID string) error {
	if _, err := s.repo.DeleteAllForUser(ctx, areaID, userID); err != nil {
		return apperrors.Internal("failed to release slot locks", err)
	}
	return nil
}

func (s *lockService) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, apperrors.Internal("failed to purge expired slot locks", err)
	}
	if purged > 0 {
		s.log.Debug("purged expired slot locks", "count", purged)
	}
	return purged, nil
}

// LocksFor returns the live locks for an area as slot number -> holder.
func (s *lockService) LocksFor(ctx context.Context, areaID string) (map[string]string, error) {
	locks, err := s.repo.FindActiveByArea(ctx, areaID, s.now().UTC())
	if err != nil {
		return nil, apperrors.Internal("failed to list slot locks", err)
	}
	held := make(map[string]string, len(locks))
	for _, lock := range locks {
		held[lock.SlotNumber] = lock.UserID
	}
	return held, nil
}

func heldError(slotNumber string) *apperrors.AppError {
	return apperrors.Conflict(fmt.Sprintf("slot %s is currently held by another user", slotNumber))
}
