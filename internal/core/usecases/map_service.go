package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/ports"
)

// MapService answers map viewport queries. It owns one ViewportVirtualizer
// and refreshes its point set from the latest fleet positions on a short
// interval rather than per request.
type MapService struct {
	positions   ports.PositionRepository
	virtualizer *ViewportVirtualizer

	mu          sync.Mutex
	refreshedAt time.Time
	refreshTTL  time.Duration
}

// NewMapService creates a new MapService.
func NewMapService(positions ports.PositionRepository, virtualizer *ViewportVirtualizer) *MapService {
	return &MapService{
		positions:   positions,
		virtualizer: virtualizer,
		refreshTTL:  10 * time.Second,
	}
}

// Viewport returns the virtualized marker set for the requested view.
func (s *MapService) Viewport(ctx context.Context, viewport domain.Viewport, zoom int) (domain.VirtualizedResult, error) {
	if err := s.refresh(ctx); err != nil {
		return domain.VirtualizedResult{}, err
	}
	return s.virtualizer.Virtualize(viewport, zoom), nil
}

func (s *MapService) refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.refreshedAt) < s.refreshTTL {
		return nil
	}

	latest, err := s.positions.LatestAll(ctx)
	if err != nil {
		return err
	}

	points := make([]domain.PointMarker, 0, len(latest))
	for _, vp := range latest {
		points = append(points, domain.PointMarker{
			ID:  vp.VehicleID,
			Lat: vp.Location.Lat,
			Lng: vp.Location.Lon,
		})
	}

	s.virtualizer.SetData(points)
	s.refreshedAt = time.Now()
	return nil
}
