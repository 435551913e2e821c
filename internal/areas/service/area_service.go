package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"

	areaerrors "parkease/internal/areas/errors"
	"parkease/internal/areas/repository"
	dbmongo "parkease/pkg/db/mongo"
	apperrors "parkease/pkg/errors"
	"parkease/pkg/logger"
	"parkease/pkg/model"
)

// Reserved low slot numbers on the ground level get the accessibility
// flags when the area advertises them.
const (
	evSlotCutoff       = 5
	handicapSlotCutoff = 8
	bikeSharePercent   = 30
)

type AreaService interface {
	Create(ctx context.Context, area *model.ParkingArea) (*model.ParkingArea, error)
	Get(ctx context.Context, id string) (*model.ParkingArea, error)
	List(ctx context.Context) ([]*model.ParkingArea, error)
	Slots(ctx context.Context, areaID string) ([]*model.Slot, error)
	AdjustOccupancy(ctx context.Context, areaID string, delta int) (*model.ParkingArea, error)
}

type areaService struct {
	repo     repository.AreaRepository
	txn      dbmongo.TransactionManager
	validate *validator.Validate
	log      *logger.Logger
}

func NewAreaService(repo repository.AreaRepository, txn dbmongo.TransactionManager, log *logger.Logger) AreaService {
	return &areaService{
		repo:     repo,
		txn:      txn,
		validate: validator.New(),
		log:      log,
	}
}

// Create stores the area and provisions its full slot inventory. Sizing
// is fixed at creation; there is no resize operation.
func (s *areaService) Create(ctx context.Context, area *model.ParkingArea) (*model.ParkingArea, error) {
	area.Occupied = 0
	if area.Levels < 1 {
		area.Levels = 1
	}
	if area.Location.Type == "" {
		area.Location.Type = "Point"
	}
	area.CreatedAt = time.Now().UTC()

	if err := s.validate.Struct(area); err != nil {
		return nil, apperrors.Validation("invalid parking area", map[string]any{"error": err.Error()})
	}

	// The area and its slot inventory land together or not at all: a
	// half-provisioned area would render as an empty slot map forever.
	var slots []*model.Slot
	err := s.txn.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		id, err := s.repo.Insert(sessCtx, area)
		if err != nil {
			return apperrors.Internal("failed to create parking area", err)
		}
		area.ID = id

		slots = ProvisionSlots(area)
		if err := s.repo.InsertSlots(sessCtx, slots); err != nil {
			return apperrors.Internal("failed to provision slots", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("parking area created",
		"area_id", area.ID,
		"name", area.Name,
		"capacity", area.Capacity,
		"slots", len(slots),
	)
	return area, nil
}

func (s *areaService) Get(ctx context.Context, id string) (*model.ParkingArea, error) {
	area, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, areaerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("parking area", id)
		}
		return nil, apperrors.Internal("failed to load parking area", err)
	}
	return area, nil
}

func (s *areaService) List(ctx context.Context) ([]*model.ParkingArea, error) {
	areas, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list parking areas", err)
	}
	return areas, nil
}

func (s *areaService) Slots(ctx context.Context, areaID string) ([]*model.Slot, error) {
	if _, err := s.Get(ctx, areaID); err != nil {
		return nil, err
	}
	slots, err := s.repo.FindSlots(ctx, areaID)
	if err != nil {
		return nil, apperrors.Internal("failed to list slots", err)
	}
	return slots, nil
}

// AdjustOccupancy moves the occupancy counter by delta and returns the
// updated area for the availability event payload.
func (s *areaService) AdjustOccupancy(ctx context.Context, areaID string, delta int) (*model.ParkingArea, error) {
	area, err := s.repo.IncrementOccupied(ctx, areaID, delta)
	if err != nil {
		switch {
		case errors.Is(err, areaerrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("parking area", areaID)
		case errors.Is(err, areaerrors.ErrCounterConflict):
			return nil, apperrors.Conflict("parking area is at capacity")
		default:
			return nil, apperrors.Internal("failed to update occupancy", err)
		}
	}
	return area, nil
}

// ProvisionSlots lays out an area's inventory. Roughly 30% of capacity
// becomes bike slots when the area supports them, all on the ground
// level; the remaining car slots are spread evenly across levels. Car
// slot numbers carry the level prefix only in multi-level areas, because
// preference notifications parse the level back out of the number.
func ProvisionSlots(area *model.ParkingArea) []*model.Slot {
	bikeCount := 0
	if area.HasBike {
		bikeCount = area.Capacity * bikeSharePercent / 100
		if bikeCount == 0 {
			bikeCount = 1
		}
	}
	carCount := area.Capacity - bikeCount

	slots := make([]*model.Slot, 0, area.Capacity)
	for n := 1; n <= bikeCount; n++ {
		slots = append(slots, &model.Slot{
			AreaID:     area.ID,
			Level:      1,
			SlotNumber: fmt.Sprintf("B-%02d", n),
			IsBike:     true,
		})
	}

	perLevel := carCount / area.Levels
	remainder := carCount % area.Levels
	for level := 1; level <= area.Levels; level++ {
		count := perLevel
		if level <= remainder {
			count++
		}
		for n := 1; n <= count; n++ {
			slot := &model.Slot{
				AreaID: area.ID,
				Level:  level,
			}
			if area.Levels > 1 {
				slot.SlotNumber = fmt.Sprintf("L%d-C%02d", level, n)
			} else {
				slot.SlotNumber = fmt.Sprintf("C-%02d", n)
			}
			if level == 1 {
				slot.IsEV = area.HasEV && n <= evSlotCutoff
				slot.IsHandicap = area.HasHandicap && n > evSlotCutoff && n <= handicapSlotCutoff
			}
			slots = append(slots, slot)
		}
	}
	return slots
}
