package domain

import (
	"time"
)

// Vehicle is a fleet vehicle registered on the platform.
type Vehicle struct {
	ID          string         `json:"id"`
	DeviceID    string         `json:"device_id"` // GP51 device identifier
	PlateNumber string         `json:"plate_number"`
	Make        string         `json:"make,omitempty"`
	Model       string         `json:"model,omitempty"`
	Year        int            `json:"year,omitempty"`
	DriverName  string         `json:"driver_name,omitempty"`
	DriverPhone string         `json:"driver_phone,omitempty"`
	MerchantID  string         `json:"merchant_id,omitempty"`
	Status      VehicleStatus  `json:"status"`
	SIMNumber   string         `json:"sim_number,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	LastSeenAt  *time.Time     `json:"last_seen_at,omitempty"`
}

// VehicleStatus is the lifecycle state of a vehicle.
type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "active"
	VehicleInactive    VehicleStatus = "inactive"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// Valid reports whether s is a known lifecycle state.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleActive, VehicleInactive, VehicleMaintenance:
		return true
	}
	return false
}

// VehiclePosition is a real-time vehicle location reading.
type VehiclePosition struct {
	Time      time.Time      `json:"time"`
	VehicleID string         `json:"vehicle_id"`
	DeviceID  string         `json:"device_id,omitempty"`
	Location  GeoPoint       `json:"location"`
	Speed     float64        `json:"speed"` // km/h
	Heading   float64        `json:"heading"`
	Altitude  float64        `json:"altitude,omitempty"`
	Ignition  bool           `json:"ignition"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// GeofenceZone is a circular zone vehicles are watched against.
type GeofenceZone struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Center       GeoPoint  `json:"center"`
	RadiusM      float64   `json:"radius_m"`
	AlertOnEnter bool      `json:"alert_on_enter"`
	AlertOnExit  bool      `json:"alert_on_exit"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// GeofenceEventType distinguishes entry from exit transitions.
type GeofenceEventType string

const (
	GeofenceEnter GeofenceEventType = "enter"
	GeofenceExit  GeofenceEventType = "exit"
)

// GeofenceAlert records a vehicle crossing a zone boundary.
type GeofenceAlert struct {
	ID         string            `json:"id"`
	Time       time.Time         `json:"time"`
	VehicleID  string            `json:"vehicle_id"`
	ZoneID     string            `json:"zone_id"`
	ZoneName   string            `json:"zone_name,omitempty"`
	Event      GeofenceEventType `json:"event"`
	Location   GeoPoint          `json:"location"`
	Notified   bool              `json:"notified"`
	NotifiedAt *time.Time        `json:"notified_at,omitempty"`
}

// User is an admin-dashboard account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"` // admin, operator, viewer
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationTemplate is an email/SMS body with {{placeholder}} slots.
type NotificationTemplate struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Channel   string    `json:"channel"` // email, sms
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// FleetStats is a snapshot of platform row counts for the admin dashboard.
type FleetStats struct {
	Vehicles       int    `json:"vehicles"`
	ActiveVehicles int    `json:"active_vehicles"`
	Positions      int    `json:"positions"`
	Geofences      int    `json:"geofences"`
	Users          int    `json:"users"`
	LastPosition   string `json:"last_position,omitempty"`
}
