package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parkease/pkg/model"
)

type NotificationRepository interface {
	Insert(ctx context.Context, notification *model.Notification) error
	FindByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UpsertPreference(ctx context.Context, preference *model.SlotPreference) error
	DeletePreference(ctx context.Context, userID, areaID string, level int) error
	FindSubscribers(ctx context.Context, areaID string, level int) ([]string, error)
}

type mongoNotificationRepository struct {
	notifications *mongo.Collection
	preferences   *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{
		notifications: db.Collection("notifications"),
		preferences:   db.Collection("slot_preferences"),
	}
}

func (r *mongoNotificationRepository) Insert(ctx context.Context, notification *model.Notification) error {
	if notification.ID == "" {
		notification.ID = primitive.NewObjectID().Hex()
	}
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now().UTC()
	}
	_, err := r.notifications.InsertOne(ctx, notification)
	return err
}

func (r *mongoNotificationRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	cursor, err := r.notifications.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(int64(limit)),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []*model.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *mongoNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result, err := r.notifications.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// UpsertPreference keys on (user, area, level) so re-subscribing just
// refreshes the timestamp.
func (r *mongoNotificationRepository) UpsertPreference(ctx context.Context, preference *model.SlotPreference) error {
	filter := bson.M{
		"user_id": preference.UserID,
		"area_id": preference.AreaID,
		"level":   preference.Level,
	}
	update := bson.M{
		"$set":         bson.M{"timestamp": preference.Timestamp},
		"$setOnInsert": bson.M{"_id": primitive.NewObjectID().Hex()},
	}
	_, err := r.preferences.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *mongoNotificationRepository) DeletePreference(ctx context.Context, userID, areaID string, level int) error {
	_, err := r.preferences.DeleteMany(ctx, bson.M{
		"user_id": userID,
		"area_id": areaID,
		"level":   level,
	})
	return err
}

func (r *mongoNotificationRepository) FindSubscribers(ctx context.Context, areaID string, level int) ([]string, error) {
	values, err := r.preferences.Distinct(ctx, "user_id", bson.M{
		"area_id": areaID,
		"level":   level,
	})
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(values))
	for _, value := range values {
		if id, ok := value.(string); ok {
			userIDs = append(userIDs, id)
		}
	}
	return userIDs, nil
}
