package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingerrors "parkease/internal/bookings/errors"
	"parkease/pkg/model"
)

// TokenKind selects which gate token a lookup matches.
type TokenKind string

const (
	EntryToken TokenKind = "entry_token"
	ExitToken  TokenKind = "exit_token"
)

// BookingRepository persists bookings. Every status transition goes
// through a guarded FindOneAndUpdate that matches the expected current
// status, so concurrent callers and replays settle to exactly one winner.
type BookingRepository interface {
	Insert(ctx context.Context, booking *model.Booking) (string, error)
	Delete(ctx context.Context, id string) error
	DeletePending(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error)
	FindByToken(ctx context.Context, vehicleNumber, token string, kind TokenKind) (*model.Booking, error)
	FindReservingByArea(ctx context.Context, areaID string) ([]*model.Booking, error)
	CountCollisions(ctx context.Context, areaID string, slotNumbers []string, start, end, now time.Time, excludeID string) (int64, error)
	TokenExists(ctx context.Context, kind TokenKind, token string) (bool, error)
	Transition(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, set bson.M) (*model.Booking, error)
	ExtendEnd(ctx context.Context, id string, from []model.BookingStatus, newEnd time.Time, newDuration int, newAmount float64) (*model.Booking, error)
	MarkReminderSent(ctx context.Context, id string) (bool, error)
	FindNoShowCandidates(ctx context.Context, now time.Time, areaID string) ([]*model.Booking, error)
	FindReminderCandidates(ctx context.Context, now time.Time, window time.Duration) ([]*model.Booking, error)
}

type mongoBookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) BookingRepository {
	return &mongoBookingRepository{
		collection: db.Collection("bookings"),
	}
}

func (r *mongoBookingRepository) Insert(ctx context.Context, booking *model.Booking) (string, error) {
	if booking.ID == "" {
		booking.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return "", err
	}
	return booking.ID, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeletePending removes an unpaid booking outright. The status guard
// keeps a concurrent payment confirmation from losing the record.
func (r *mongoBookingRepository) DeletePending(ctx context.Context, id string) (bool, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":    id,
		"status": model.StatusPendingPayment,
	})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	filter := bson.M{"user_id": userID}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset),
	)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindByToken resolves a gate scan. Tokens are stored uppercase, so the
// lookup normalizes the scanned value first.
func (r *mongoBookingRepository) FindByToken(ctx context.Context, vehicleNumber, token string, kind TokenKind) (*model.Booking, error) {
	var booking model.Booking
	filter := bson.M{
		"vehicle_number": vehicleNumber,
		string(kind):     strings.ToUpper(token),
	}
	if err := r.collection.FindOne(ctx, filter).Decode(&booking); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindReservingByArea(ctx context.Context, areaID string) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"area_id": areaID,
		"status":  bson.M{"$in": model.ReservingStatuses()},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CountCollisions counts reserving bookings holding any of the slots for
// some part of [start, end). An Active booking occupies its slots until
// checkout even past its end time, which the $or arm covers once now has
// passed the window start.
func (r *mongoBookingRepository) CountCollisions(ctx context.Context, areaID string, slotNumbers []string, start, end, now time.Time, excludeID string) (int64, error) {
	overlap := []bson.M{
		{"end_time": bson.M{"$gt": start}},
	}
	if now.After(start) {
		overlap = append(overlap, bson.M{"status": model.StatusActive})
	}

	filter := bson.M{
		"area_id":    areaID,
		"spots":      bson.M{"$in": slotNumbers},
		"status":     bson.M{"$in": model.ReservingStatuses()},
		"start_time": bson.M{"$lt": end},
		"$or":        overlap,
	}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return r.collection.CountDocuments(ctx, filter)
}

func (r *mongoBookingRepository) TokenExists(ctx context.Context, kind TokenKind, token string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{string(kind): token})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Transition applies a guarded status change and returns the updated
// booking. ErrStatusConflict means the booking exists but left the
// expected status first. Source statuses the lifecycle table does not
// permit for the target are dropped before the filter is built, so the
// store only ever applies a legal move.
func (r *mongoBookingRepository) Transition(ctx context.Context, id string, from []model.BookingStatus, to model.BookingStatus, set bson.M) (*model.Booking, error) {
	legal := make([]model.BookingStatus, 0, len(from))
	for _, status := range from {
		if model.CanTransition(status, to) {
			legal = append(legal, status)
		}
	}
	if len(legal) == 0 {
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, bookingerrors.ErrStatusConflict
	}

	if set == nil {
		set = bson.M{}
	}
	set["status"] = to

	var updated model.Booking
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": legal}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, bookingerrors.ErrStatusConflict
		}
		return nil, err
	}
	return &updated, nil
}

func (r *mongoBookingRepository) ExtendEnd(ctx context.Context, id string, from []model.BookingStatus, newEnd time.Time, newDuration int, newAmount float64) (*model.Booking, error) {
	var updated model.Booking
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}, "end_time": bson.M{"$lt": newEnd}},
		bson.M{"$set": bson.M{
			"end_time":      newEnd,
			"duration":      newDuration,
			"amount":        newAmount,
			"reminder_sent": false,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, bookingerrors.ErrStatusConflict
		}
		return nil, err
	}
	return &updated, nil
}

// MarkReminderSent flips the reminder flag exactly once. The false guard
// makes overlapping sweeps idempotent: only the sweep that flips the flag
// sends the reminder.
func (r *mongoBookingRepository) MarkReminderSent(ctx context.Context, id string) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "reminder_sent": false},
		bson.M{"$set": bson.M{"reminder_sent": true}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// FindNoShowCandidates lists confirmed bookings whose grace period
// lapsed without a check-in. A non-empty areaID narrows the scan to one
// area.
func (r *mongoBookingRepository) FindNoShowCandidates(ctx context.Context, now time.Time, areaID string) ([]*model.Booking, error) {
	filter := bson.M{
		"status":           model.StatusConfirmed,
		"grace_period_end": bson.M{"$lt": now},
		"check_in_time":    nil,
	}
	if areaID != "" {
		filter["area_id"] = areaID
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *mongoBookingRepository) FindReminderCandidates(ctx context.Context, now time.Time, window time.Duration) ([]*model.Booking, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"status":        model.StatusActive,
		"reminder_sent": false,
		"end_time": bson.M{
			"$gt":  now,
			"$lte": now.Add(window),
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}
