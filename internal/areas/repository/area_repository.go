package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	areaerrors "parkease/internal/areas/errors"
	"parkease/pkg/model"
)

type AreaRepository interface {
	Insert(ctx context.Context, area *model.ParkingArea) (string, error)
	InsertSlots(ctx context.Context, slots []*model.Slot) error
	FindByID(ctx context.Context, id string) (*model.ParkingArea, error)
	FindAll(ctx context.Context) ([]*model.ParkingArea, error)
	FindSlots(ctx context.Context, areaID string) ([]*model.Slot, error)
	IncrementOccupied(ctx context.Context, id string, delta int) (*model.ParkingArea, error)
}

type mongoAreaRepository struct {
	areas *mongo.Collection
	slots *mongo.Collection
}

func NewAreaRepository(db *mongo.Database) AreaRepository {
	return &mongoAreaRepository{
		areas: db.Collection("parking_areas"),
		slots: db.Collection("slots"),
	}
}

// Document IDs are hex strings generated at insert time so they decode
// directly into the string ID fields on the models.

func (r *mongoAreaRepository) Insert(ctx context.Context, area *model.ParkingArea) (string, error) {
	if area.ID == "" {
		area.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.areas.InsertOne(ctx, area); err != nil {
		return "", err
	}
	return area.ID, nil
}

func (r *mongoAreaRepository) InsertSlots(ctx context.Context, slots []*model.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	docs := make([]interface{}, len(slots))
	for i, slot := range slots {
		if slot.ID == "" {
			slot.ID = primitive.NewObjectID().Hex()
		}
		docs[i] = slot
	}
	_, err := r.slots.InsertMany(ctx, docs)
	return err
}

func (r *mongoAreaRepository) FindByID(ctx context.Context, id string) (*model.ParkingArea, error) {
	var area model.ParkingArea
	if err := r.areas.FindOne(ctx, bson.M{"_id": id}).Decode(&area); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, areaerrors.ErrNotFound
		}
		return nil, err
	}
	return &area, nil
}

func (r *mongoAreaRepository) FindAll(ctx context.Context) ([]*model.ParkingArea, error) {
	cursor, err := r.areas.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var areas []*model.ParkingArea
	if err := cursor.All(ctx, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

func (r *mongoAreaRepository) FindSlots(ctx context.Context, areaID string) ([]*model.Slot, error) {
	cursor, err := r.slots.Find(ctx,
		bson.M{"area_id": areaID},
		options.Find().SetSort(bson.D{{Key: "level", Value: 1}, {Key: "slot_number", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var slots []*model.Slot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// IncrementOccupied adjusts the occupancy counter atomically and returns
// the post-increment document. The filter refuses increments that would
// leave occupied outside [0, capacity], so concurrent bookings cannot
// oversell an area and releases cannot drive the counter negative.
func (r *mongoAreaRepository) IncrementOccupied(ctx context.Context, id string, delta int) (*model.ParkingArea, error) {
	filter := bson.M{"_id": id}
	if delta > 0 {
		filter["$expr"] = bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$occupied", delta}},
			"$capacity",
		}}
	} else if delta < 0 {
		filter["occupied"] = bson.M{"$gte": -delta}
	}

	var updated model.ParkingArea
	err := r.areas.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$inc": bson.M{"occupied": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Distinguish a missing area from a counter that cannot move.
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, areaerrors.ErrCounterConflict
		}
		return nil, err
	}
	return &updated, nil
}
