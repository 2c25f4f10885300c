package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/ports"
)

// VehicleService handles vehicle-related business logic.
type VehicleService struct {
	vehicles  ports.VehicleRepository
	positions ports.PositionRepository
	cache     ports.CacheService
}

// NewVehicleService creates a new VehicleService.
func NewVehicleService(vehicles ports.VehicleRepository, positions ports.PositionRepository, cache ports.CacheService) *VehicleService {
	return &VehicleService{vehicles: vehicles, positions: positions, cache: cache}
}

// List returns vehicles, optionally filtered by status.
func (s *VehicleService) List(ctx context.Context, status domain.VehicleStatus) ([]domain.Vehicle, error) {
	cacheKey := "vehicles:list:" + string(status)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var vehicles []domain.Vehicle
			if err := json.Unmarshal(data, &vehicles); err == nil {
				return vehicles, nil
			}
		}
	}

	vehicles, err := s.vehicles.List(ctx, status)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(vehicles); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 60)
		}
	}

	return vehicles, nil
}

// GetByID returns a single vehicle.
func (s *VehicleService) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	return s.vehicles.GetByID(ctx, id)
}

// Save validates and upserts a vehicle, invalidating the list cache.
func (s *VehicleService) Save(ctx context.Context, v *domain.Vehicle) error {
	if v.PlateNumber == "" {
		return fmt.Errorf("plate number is required")
	}
	if v.DeviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if v.Status == "" {
		v.Status = domain.VehicleActive
	}

	if err := s.vehicles.Upsert(ctx, v); err != nil {
		return err
	}
	s.invalidateLists(ctx)
	return nil
}

// Delete removes a vehicle.
func (s *VehicleService) Delete(ctx context.Context, id string) error {
	if err := s.vehicles.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateLists(ctx)
	return nil
}

// History returns a vehicle's position trail for a time window.
func (s *VehicleService) History(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]domain.VehiclePosition, error) {
	if limit <= 0 || limit > 5000 {
		limit = 1000
	}
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.Add(-24 * time.Hour)
	}
	return s.positions.History(ctx, vehicleID, from, to, limit)
}

func (s *VehicleService) invalidateLists(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, status := range []domain.VehicleStatus{"", domain.VehicleActive, domain.VehicleInactive, domain.VehicleMaintenance} {
		_ = s.cache.Delete(ctx, "vehicles:list:"+string(status))
	}
}
