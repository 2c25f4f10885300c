package postgres

import (
	"context"

	"github.com/jomondi/fleetpulse/internal/core/domain"
)

// GeofenceRepo implements ports.GeofenceRepository.
type GeofenceRepo struct {
	db *DB
}

func NewGeofenceRepo(db *DB) *GeofenceRepo {
	return &GeofenceRepo{db: db}
}

func (r *GeofenceRepo) Upsert(ctx context.Context, zone *domain.GeofenceZone) error {
	if zone.ID == "" {
		return r.db.Pool.QueryRow(ctx, `
			INSERT INTO geofence_zones (name, center, radius_m, alert_on_enter, alert_on_exit, active)
			VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4, $5, $6, $7)
			RETURNING id
		`, zone.Name, zone.Center.Lon, zone.Center.Lat, zone.RadiusM,
			zone.AlertOnEnter, zone.AlertOnExit, zone.Active).Scan(&zone.ID)
	}
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE geofence_zones SET
			name = $2,
			center = ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography,
			radius_m = $5,
			alert_on_enter = $6,
			alert_on_exit = $7,
			active = $8
		WHERE id = $1
	`, zone.ID, zone.Name, zone.Center.Lon, zone.Center.Lat, zone.RadiusM,
		zone.AlertOnEnter, zone.AlertOnExit, zone.Active)
	return err
}

func (r *GeofenceRepo) GetByID(ctx context.Context, id string) (*domain.GeofenceZone, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, name,
			ST_Y(center::geometry), ST_X(center::geometry),
			radius_m, alert_on_enter, alert_on_exit, active, created_at
		FROM geofence_zones WHERE id = $1
	`, id)

	var z domain.GeofenceZone
	if err := row.Scan(&z.ID, &z.Name, &z.Center.Lat, &z.Center.Lon,
		&z.RadiusM, &z.AlertOnEnter, &z.AlertOnExit, &z.Active, &z.CreatedAt); err != nil {
		return nil, err
	}
	return &z, nil
}

func (r *GeofenceRepo) ListActive(ctx context.Context) ([]domain.GeofenceZone, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name,
			ST_Y(center::geometry), ST_X(center::geometry),
			radius_m, alert_on_enter, alert_on_exit, active, created_at
		FROM geofence_zones
		WHERE active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.GeofenceZone
	for rows.Next() {
		var z domain.GeofenceZone
		if err := rows.Scan(&z.ID, &z.Name, &z.Center.Lat, &z.Center.Lon,
			&z.RadiusM, &z.AlertOnEnter, &z.AlertOnExit, &z.Active, &z.CreatedAt); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

func (r *GeofenceRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM geofence_zones WHERE id = $1`, id)
	return err
}

func (r *GeofenceRepo) InsertAlert(ctx context.Context, alert *domain.GeofenceAlert) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO geofence_alerts (time, vehicle_id, zone_id, event, location)
		VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography)
		RETURNING id
	`, alert.Time, alert.VehicleID, alert.ZoneID, string(alert.Event),
		alert.Location.Lon, alert.Location.Lat).Scan(&alert.ID)
}

func (r *GeofenceRepo) MarkNotified(ctx context.Context, alertID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE geofence_alerts SET notified = true, notified_at = now() WHERE id = $1`, alertID)
	return err
}

func (r *GeofenceRepo) RevertNotified(ctx context.Context, alertID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE geofence_alerts SET notified = false, notified_at = NULL WHERE id = $1`, alertID)
	return err
}
