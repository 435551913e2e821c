package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	lockerrors "parkease/internal/locks/errors"
	"parkease/pkg/model"
)

// LockRepository persists advisory slot locks. The lock document _id is
// the composite "<areaID>:<slotNumber>", so a unique-index violation on
// insert is the signal that another user already holds the slot.
type LockRepository interface {
	Insert(ctx context.Context, lock *model.SlotLock) error
	FindByID(ctx context.Context, id string) (*model.SlotLock, error)
	UpdateExpiry(ctx context.Context, id, userID string, expiresAt time.Time) (bool, error)
	Delete(ctx context.Context, id, userID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteAllForUser(ctx context.Context, areaID, userID string) (int64, error)
	FindActiveByArea(ctx context.Context, areaID string, now time.Time) ([]*model.SlotLock, error)
}

type mongoLockRepository struct {
	collection *mongo.Collection
}

func NewLockRepository(db *mongo.Database) LockRepository {
	return &mongoLockRepository{
		collection: db.Collection("slot_locks"),
	}
}

func (r *mongoLockRepository) Insert(ctx context.Context, lock *model.SlotLock) error {
	_, err := r.collection.InsertOne(ctx, lock)
	return err
}

func (r *mongoLockRepository) FindByID(ctx context.Context, id string) (*model.SlotLock, error) {
	var lock model.SlotLock
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&lock)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, lockerrors.ErrNotFound
		}
		return nil, err
	}
	return &lock, nil
}

// UpdateExpiry extends a lock only when it is still owned by userID.
// Returns false when no matching lock exists.
func (r *mongoLockRepository) UpdateExpiry(ctx context.Context, id, userID string, expiresAt time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"expires_at": expiresAt}},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

func (r *mongoLockRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (r *mongoLockRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoLockRepository) DeleteAllForUser(ctx context.Context, areaID, userID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"area_id": areaID, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *mongoLockRepository) FindActiveByArea(ctx context.Context, areaID string, now time.Time) ([]*model.SlotLock, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"area_id": areaID, "expires_at": bson.M{"$gte": now}},
		options.Find().SetSort(bson.D{{Key: "slot_number", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var locks []*model.SlotLock
	if err := cursor.All(ctx, &locks); err != nil {
		return nil, err
	}
	return locks, nil
}
