package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/ports"
	"github.com/jomondi/fleetpulse/internal/pkg/metrics"
)

// TrackingService processes incoming GP51 position batches.
type TrackingService struct {
	positions ports.PositionRepository
	vehicles  ports.VehicleRepository
	publisher ports.EventPublisher
	geofences *GeofenceService
}

// NewTrackingService creates a new TrackingService. geofences may be nil when
// geofence evaluation is handled elsewhere.
func NewTrackingService(
	positions ports.PositionRepository,
	vehicles ports.VehicleRepository,
	publisher ports.EventPublisher,
	geofences *GeofenceService,
) *TrackingService {
	return &TrackingService{
		positions: positions,
		vehicles:  vehicles,
		publisher: publisher,
		geofences: geofences,
	}
}

// ProcessBatch validates, stores, and publishes a batch of positions.
// Rows with out-of-range coordinates are skipped with a warning rather than
// letting NaN or garbage propagate into the map pipeline. Positions carrying
// only a device ID (the GP51 poller) are resolved to a vehicle; positions
// for devices not registered as vehicles are dropped.
func (s *TrackingService) ProcessBatch(ctx context.Context, batch []domain.VehiclePosition) error {
	valid := make([]domain.VehiclePosition, 0, len(batch))
	for _, vp := range batch {
		if !vp.Location.Valid() {
			slog.Warn("skipping position with invalid coordinates",
				"vehicle_id", vp.VehicleID,
				"device_id", vp.DeviceID,
				"lat", vp.Location.Lat,
				"lon", vp.Location.Lon)
			continue
		}
		if vp.VehicleID == "" {
			v, err := s.vehicles.GetByDeviceID(ctx, vp.DeviceID)
			if err != nil {
				slog.Warn("position for unknown device", "device_id", vp.DeviceID)
				continue
			}
			vp.VehicleID = v.ID
		}
		if vp.Time.IsZero() {
			vp.Time = time.Now()
		}
		valid = append(valid, vp)
	}
	if len(valid) == 0 {
		return nil
	}

	if err := s.positions.InsertBatch(ctx, valid); err != nil {
		return fmt.Errorf("insert positions: %w", err)
	}
	metrics.PositionsIngested.Add(float64(len(valid)))

	for i := range valid {
		// Broadcast to WebSocket clients; best-effort.
		_ = s.publisher.PublishPosition(ctx, &valid[i])

		if s.geofences != nil {
			if err := s.geofences.Evaluate(ctx, &valid[i]); err != nil {
				slog.Warn("geofence evaluation failed", "vehicle_id", valid[i].VehicleID, "error", err)
			}
		}
	}

	return nil
}
