package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/ports"
	"github.com/jomondi/fleetpulse/internal/pkg/geospatial"
	"github.com/jomondi/fleetpulse/internal/pkg/metrics"
)

// GeofenceService evaluates vehicle positions against active zones and emits
// entry/exit alerts on state transitions.
type GeofenceService struct {
	repo      ports.GeofenceRepository
	publisher ports.EventPublisher

	mu     sync.Mutex
	inside map[string]bool // vehicleID:zoneID -> inside

	zonesMu sync.Mutex
	zones   []domain.GeofenceZone
	zonesAt time.Time
	zoneTTL time.Duration
}

// NewGeofenceService creates a new GeofenceService.
func NewGeofenceService(repo ports.GeofenceRepository, publisher ports.EventPublisher) *GeofenceService {
	return &GeofenceService{
		repo:      repo,
		publisher: publisher,
		inside:    make(map[string]bool),
		zoneTTL:   30 * time.Second,
	}
}

// ListZones returns all active zones.
func (s *GeofenceService) ListZones(ctx context.Context) ([]domain.GeofenceZone, error) {
	return s.repo.ListActive(ctx)
}

// SaveZone validates and upserts a zone, refreshing the local zone cache.
func (s *GeofenceService) SaveZone(ctx context.Context, zone *domain.GeofenceZone) error {
	if zone.Name == "" {
		return fmt.Errorf("zone name is required")
	}
	if !zone.Center.Valid() {
		return fmt.Errorf("zone center out of range: %.4f, %.4f", zone.Center.Lat, zone.Center.Lon)
	}
	if zone.RadiusM <= 0 {
		return fmt.Errorf("zone radius must be positive")
	}
	if err := s.repo.Upsert(ctx, zone); err != nil {
		return err
	}
	s.expireZoneCache()
	return nil
}

// DeleteZone removes a zone.
func (s *GeofenceService) DeleteZone(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.expireZoneCache()
	return nil
}

// Evaluate checks one position against every active zone. Transitions produce
// a persisted alert and a broker event; staying on the same side of a
// boundary produces nothing.
func (s *GeofenceService) Evaluate(ctx context.Context, vp *domain.VehiclePosition) error {
	zones, err := s.activeZones(ctx)
	if err != nil {
		return fmt.Errorf("load zones: %w", err)
	}

	for i := range zones {
		zone := &zones[i]
		dist := geospatial.Haversine(vp.Location.Lat, vp.Location.Lon, zone.Center.Lat, zone.Center.Lon)
		nowInside := dist <= zone.RadiusM

		key := vp.VehicleID + ":" + zone.ID
		s.mu.Lock()
		wasInside, seen := s.inside[key]
		s.inside[key] = nowInside
		s.mu.Unlock()

		// First sighting establishes state without alerting.
		if !seen || wasInside == nowInside {
			continue
		}

		event := domain.GeofenceExit
		if nowInside {
			event = domain.GeofenceEnter
		}
		if event == domain.GeofenceEnter && !zone.AlertOnEnter {
			continue
		}
		if event == domain.GeofenceExit && !zone.AlertOnExit {
			continue
		}

		alert := &domain.GeofenceAlert{
			Time:      vp.Time,
			VehicleID: vp.VehicleID,
			ZoneID:    zone.ID,
			ZoneName:  zone.Name,
			Event:     event,
			Location:  vp.Location,
		}
		if err := s.repo.InsertAlert(ctx, alert); err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
		metrics.GeofenceAlerts.WithLabelValues(string(event)).Inc()
		_ = s.publisher.PublishGeofenceAlert(ctx, alert)
	}

	return nil
}

func (s *GeofenceService) activeZones(ctx context.Context) ([]domain.GeofenceZone, error) {
	s.zonesMu.Lock()
	defer s.zonesMu.Unlock()

	if s.zones != nil && time.Since(s.zonesAt) < s.zoneTTL {
		return s.zones, nil
	}
	zones, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	s.zones = zones
	s.zonesAt = time.Now()
	return zones, nil
}

func (s *GeofenceService) expireZoneCache() {
	s.zonesMu.Lock()
	s.zones = nil
	s.zonesMu.Unlock()
}
