package usecases

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/ports"
)

// ImportReport summarizes a bulk import run.
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportService bulk-imports fleet data from CSV.
type ImportService struct {
	vehicles ports.VehicleRepository
	users    ports.UserRepository
}

// NewImportService creates a new ImportService.
func NewImportService(vehicles ports.VehicleRepository, users ports.UserRepository) *ImportService {
	return &ImportService{vehicles: vehicles, users: users}
}

// ImportVehicles reads a CSV stream with a header row and upserts the valid
// rows in one batch. Recognized columns: plate_number, device_id, make,
// model, year, driver_name, driver_phone, sim_number, status. Rows missing
// plate_number or device_id are reported and skipped, not fatal.
func (s *ImportService) ImportVehicles(ctx context.Context, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols["plate_number"]; !ok {
		return nil, fmt.Errorf("missing required column plate_number")
	}
	if _, ok := cols["device_id"]; !ok {
		return nil, fmt.Errorf("missing required column device_id")
	}

	report := &ImportReport{}
	var batch []domain.Vehicle

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		get := func(name string) string {
			if idx, ok := cols[name]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}

		v := domain.Vehicle{
			PlateNumber: get("plate_number"),
			DeviceID:    get("device_id"),
			Make:        get("make"),
			Model:       get("model"),
			DriverName:  get("driver_name"),
			DriverPhone: get("driver_phone"),
			SIMNumber:   get("sim_number"),
			Status:      domain.VehicleStatus(get("status")),
		}
		if y := get("year"); y != "" {
			if year, err := strconv.Atoi(y); err == nil {
				v.Year = year
			}
		}
		if v.Status == "" {
			v.Status = domain.VehicleActive
		}

		if v.PlateNumber == "" || v.DeviceID == "" {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: plate_number and device_id are required", line))
			continue
		}

		batch = append(batch, v)
	}

	if len(batch) > 0 {
		if err := s.vehicles.UpsertBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("upsert vehicles: %w", err)
		}
	}
	report.Imported = len(batch)
	return report, nil
}

// ImportUsers reads a CSV stream of dashboard accounts. Recognized columns:
// email, name, phone, role.
func (s *ImportService) ImportUsers(ctx context.Context, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols["email"]; !ok {
		return nil, fmt.Errorf("missing required column email")
	}

	report := &ImportReport{}
	var batch []domain.User

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		get := func(name string) string {
			if idx, ok := cols[name]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}

		u := domain.User{
			Email:  get("email"),
			Name:   get("name"),
			Phone:  get("phone"),
			Role:   get("role"),
			Active: true,
		}
		if u.Role == "" {
			u.Role = "viewer"
		}
		if u.Email == "" || !strings.Contains(u.Email, "@") {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: invalid email %q", line, u.Email))
			continue
		}

		batch = append(batch, u)
	}

	if len(batch) > 0 {
		if err := s.users.UpsertBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("upsert users: %w", err)
		}
	}
	report.Imported = len(batch)
	return report, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}
