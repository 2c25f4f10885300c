package ports

import (
	"context"

	"github.com/jomondi/fleetpulse/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishPosition(ctx context.Context, vp *domain.VehiclePosition) error
	PublishGeofenceAlert(ctx context.Context, alert *domain.GeofenceAlert) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribePositions(ctx context.Context, handler func(ctx context.Context, vp *domain.VehiclePosition) error) error
	SubscribeGeofenceAlerts(ctx context.Context, handler func(ctx context.Context, alert *domain.GeofenceAlert) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Notifier delivers rendered notifications.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// PositionSource supplies current device positions from a tracking provider.
type PositionSource interface {
	FetchPositions(ctx context.Context) ([]domain.VehiclePosition, error)
}
