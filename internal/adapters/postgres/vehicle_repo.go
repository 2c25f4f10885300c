package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jomondi/fleetpulse/internal/core/domain"
)

// VehicleRepo implements ports.VehicleRepository.
type VehicleRepo struct {
	db *DB
}

func NewVehicleRepo(db *DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

func (r *VehicleRepo) Upsert(ctx context.Context, v *domain.Vehicle) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO vehicles (device_id, plate_number, make, model, year, driver_name, driver_phone, merchant_id, status, sim_number, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (device_id) DO UPDATE SET
			plate_number = EXCLUDED.plate_number,
			make = EXCLUDED.make,
			model = EXCLUDED.model,
			year = EXCLUDED.year,
			driver_name = EXCLUDED.driver_name,
			driver_phone = EXCLUDED.driver_phone,
			merchant_id = EXCLUDED.merchant_id,
			status = EXCLUDED.status,
			sim_number = EXCLUDED.sim_number,
			metadata = EXCLUDED.metadata
	`, v.DeviceID, v.PlateNumber, nilIfEmpty(v.Make), nilIfEmpty(v.Model), v.Year,
		nilIfEmpty(v.DriverName), nilIfEmpty(v.DriverPhone), nilIfEmpty(v.MerchantID),
		string(v.Status), nilIfEmpty(v.SIMNumber), v.Metadata)
	return err
}

func (r *VehicleRepo) UpsertBatch(ctx context.Context, vehicles []domain.Vehicle) error {
	for i := range vehicles {
		if err := r.Upsert(ctx, &vehicles[i]); err != nil {
			return fmt.Errorf("upsert vehicle %s: %w", vehicles[i].PlateNumber, err)
		}
	}
	return nil
}

const vehicleCols = `
	id, device_id, plate_number,
	COALESCE(make, ''), COALESCE(model, ''), COALESCE(year, 0),
	COALESCE(driver_name, ''), COALESCE(driver_phone, ''), COALESCE(merchant_id, ''),
	status, COALESCE(sim_number, ''), created_at, last_seen_at`

func (r *VehicleRepo) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+vehicleCols+` FROM vehicles WHERE id = $1`, id)
	return scanVehicle(row)
}

func (r *VehicleRepo) GetByDeviceID(ctx context.Context, deviceID string) (*domain.Vehicle, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+vehicleCols+` FROM vehicles WHERE device_id = $1`, deviceID)
	return scanVehicle(row)
}

func (r *VehicleRepo) List(ctx context.Context, status domain.VehicleStatus) ([]domain.Vehicle, error) {
	query := `SELECT ` + vehicleCols + ` FROM vehicles`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY plate_number`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

func (r *VehicleRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var v domain.Vehicle
	var lastSeen sql.NullTime
	if err := row.Scan(
		&v.ID, &v.DeviceID, &v.PlateNumber,
		&v.Make, &v.Model, &v.Year,
		&v.DriverName, &v.DriverPhone, &v.MerchantID,
		&v.Status, &v.SIMNumber, &v.CreatedAt, &lastSeen,
	); err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		v.LastSeenAt = &lastSeen.Time
	}
	return &v, nil
}
