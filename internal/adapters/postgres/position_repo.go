package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jomondi/fleetpulse/internal/core/domain"
)

// PositionRepo implements ports.PositionRepository.
type PositionRepo struct {
	db *DB
}

func NewPositionRepo(db *DB) *PositionRepo {
	return &PositionRepo{db: db}
}

func (r *PositionRepo) Insert(ctx context.Context, vp *domain.VehiclePosition) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO vehicle_positions (time, vehicle_id, device_id, location, speed, heading, altitude, ignition, metadata)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7, $8, $9, $10)
	`, vp.Time, vp.VehicleID, nilIfEmpty(vp.DeviceID),
		vp.Location.Lon, vp.Location.Lat, vp.Speed, vp.Heading, vp.Altitude,
		vp.Ignition, vp.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.Pool.Exec(ctx,
		`UPDATE vehicles SET last_seen_at = $1 WHERE id = $2`, vp.Time, vp.VehicleID)
	return err
}

func (r *PositionRepo) InsertBatch(ctx context.Context, vps []domain.VehiclePosition) error {
	for i := range vps {
		if err := r.Insert(ctx, &vps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PositionRepo) LatestAll(ctx context.Context) ([]domain.VehiclePosition, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT DISTINCT ON (vehicle_id)
			time, vehicle_id, device_id,
			ST_Y(location::geometry) as lat,
			ST_X(location::geometry) as lon,
			speed, heading, ignition
		FROM vehicle_positions
		WHERE time > now() - interval '1 hour'
		ORDER BY vehicle_id, time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPositions(rows)
}

func (r *PositionRepo) History(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]domain.VehiclePosition, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT time, vehicle_id, device_id,
			ST_Y(location::geometry) as lat,
			ST_X(location::geometry) as lon,
			speed, heading, ignition
		FROM vehicle_positions
		WHERE vehicle_id = $1 AND time BETWEEN $2 AND $3
		ORDER BY time DESC
		LIMIT $4
	`, vehicleID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPositions(rows)
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanPositions(rows pgxRows) ([]domain.VehiclePosition, error) {
	var positions []domain.VehiclePosition
	for rows.Next() {
		var vp domain.VehiclePosition
		var deviceID sql.NullString
		if err := rows.Scan(
			&vp.Time, &vp.VehicleID, &deviceID,
			&vp.Location.Lat, &vp.Location.Lon,
			&vp.Speed, &vp.Heading, &vp.Ignition,
		); err != nil {
			return nil, err
		}
		vp.DeviceID = deviceID.String
		positions = append(positions, vp)
	}
	return positions, rows.Err()
}
