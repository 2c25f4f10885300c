package ports

import (
	"context"
	"time"

	"github.com/jomondi/fleetpulse/internal/core/domain"
)

// VehicleRepository persists vehicles.
type VehicleRepository interface {
	Upsert(ctx context.Context, vehicle *domain.Vehicle) error
	UpsertBatch(ctx context.Context, vehicles []domain.Vehicle) error
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*domain.Vehicle, error)
	List(ctx context.Context, status domain.VehicleStatus) ([]domain.Vehicle, error)
	Delete(ctx context.Context, id string) error
}

// PositionRepository persists real-time vehicle positions.
type PositionRepository interface {
	Insert(ctx context.Context, vp *domain.VehiclePosition) error
	InsertBatch(ctx context.Context, vps []domain.VehiclePosition) error
	LatestAll(ctx context.Context) ([]domain.VehiclePosition, error)
	History(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]domain.VehiclePosition, error)
}

// GeofenceRepository persists geofence zones and alerts.
type GeofenceRepository interface {
	Upsert(ctx context.Context, zone *domain.GeofenceZone) error
	GetByID(ctx context.Context, id string) (*domain.GeofenceZone, error)
	ListActive(ctx context.Context) ([]domain.GeofenceZone, error)
	Delete(ctx context.Context, id string) error
	InsertAlert(ctx context.Context, alert *domain.GeofenceAlert) error
	MarkNotified(ctx context.Context, alertID string) error
	RevertNotified(ctx context.Context, alertID string) error
}

// BillingConfigRepository loads the four-tier fee configuration snapshot.
type BillingConfigRepository interface {
	Snapshot(ctx context.Context) (*domain.BillingConfig, error)
}

// UserRepository persists admin-dashboard accounts.
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) error
	UpsertBatch(ctx context.Context, users []domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// TemplateRepository persists notification templates.
type TemplateRepository interface {
	GetBySlug(ctx context.Context, slug, channel string) (*domain.NotificationTemplate, error)
	List(ctx context.Context) ([]domain.NotificationTemplate, error)
	Upsert(ctx context.Context, tpl *domain.NotificationTemplate) error
}
