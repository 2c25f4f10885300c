package http

import (
	"github.com/jomondi/fleetpulse/internal/adapters/postgres"
	"github.com/jomondi/fleetpulse/internal/adapters/valkey"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
	"github.com/nats-io/nats.go"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Vehicles  *usecases.VehicleService
	Map       *usecases.MapService
	Fees      *usecases.FeeService
	Geofences *usecases.GeofenceService
	Users     *usecases.UserService
	Templates *usecases.TemplateService
	Importer  *usecases.ImportService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
