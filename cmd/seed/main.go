package main

import (
	"context"

	"github.com/joho/godotenv"

	"parkease/internal/areas/repository"
	"parkease/internal/areas/service"
	"parkease/pkg/config"
	dbmongo "parkease/pkg/db/mongo"
	"parkease/pkg/model"
)

// seed provisions a set of demo parking areas with their full slot
// inventories. Safe to run against an empty database only; it does not
// check for existing areas.
func main() {
	_ = godotenv.Load()

	cfg := config.Load("seed")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	txn := dbmongo.NewTransactionManager(cfg.Client.Mongo)
	areas := service.NewAreaService(repository.NewAreaRepository(db), txn, cfg.Log)

	demo := []*model.ParkingArea{
		{
			Name:     "Central Mall Parking",
			Capacity: 60,
			Price:    20,
			Levels:   3,
			HasEV:    true,
			HasBike:  true,
			Location: model.GeoPoint{Type: "Point", Coordinates: []float64{77.5946, 12.9716}},
		},
		{
			Name:        "Airport Long Stay",
			Capacity:    120,
			Price:       35,
			Levels:      2,
			HasEV:       true,
			HasHandicap: true,
			Location:    model.GeoPoint{Type: "Point", Coordinates: []float64{77.7068, 13.1986}},
		},
		{
			Name:        "Station Road Lot",
			Capacity:    25,
			Price:       10,
			Levels:      1,
			HasBike:     true,
			HasHandicap: true,
			Location:    model.GeoPoint{Type: "Point", Coordinates: []float64{77.5806, 12.9780}},
		},
	}

	ctx := context.Background()
	for _, area := range demo {
		created, err := areas.Create(ctx, area)
		if err != nil {
			cfg.Log.Fatal("failed to seed parking area", "name", area.Name, "error", err)
		}
		cfg.Log.Info("seeded parking area",
			"area_id", created.ID,
			"name", created.Name,
			"capacity", created.Capacity,
		)
	}
}
