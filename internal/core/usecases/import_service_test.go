package usecases_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
)

// --- Mock UserRepository ---

type mockUserRepo struct {
	upsertFn      func(ctx context.Context, u *domain.User) error
	upsertBatchFn func(ctx context.Context, us []domain.User) error
	listFn        func(ctx context.Context) ([]domain.User, error)
}

func (m *mockUserRepo) Upsert(ctx context.Context, u *domain.User) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, u)
	}
	return nil
}
func (m *mockUserRepo) UpsertBatch(ctx context.Context, us []domain.User) error {
	if m.upsertBatchFn != nil {
		return m.upsertBatchFn(ctx, us)
	}
	return nil
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, nil
}
func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func TestImportVehicles_ValidRows(t *testing.T) {
	var batch []domain.Vehicle
	repo := &mockVehicleRepo{
		upsertBatchFn: func(ctx context.Context, vs []domain.Vehicle) error {
			batch = vs
			return nil
		},
	}
	svc := usecases.NewImportService(repo, &mockUserRepo{})

	csv := `plate_number,device_id,make,model,year,status
KDA 123X,d1,Toyota,Hiace,2019,active
KDB 456Y,d2,Isuzu,NQR,2021,maintenance
`
	report, err := svc.ImportVehicles(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Imported != 2 || report.Skipped != 0 {
		t.Fatalf("expected 2 imported, got %+v", report)
	}
	if len(batch) != 2 {
		t.Fatalf("expected one batch of 2, got %d", len(batch))
	}
	if batch[0].PlateNumber != "KDA 123X" || batch[0].Year != 2019 {
		t.Errorf("row 1 mismapped: %+v", batch[0])
	}
	if batch[1].Status != domain.VehicleMaintenance {
		t.Errorf("expected maintenance status, got %s", batch[1].Status)
	}
}

func TestImportVehicles_SkipsBadRowsWithRowNumbers(t *testing.T) {
	svc := usecases.NewImportService(&mockVehicleRepo{}, &mockUserRepo{})

	// Row 3 has no device_id, row 4 has no plate
	csv := `plate_number,device_id
KDA 123X,d1
KDB 456Y,
,d3
`
	report, err := svc.ImportVehicles(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Imported != 1 || report.Skipped != 2 {
		t.Fatalf("expected 1 imported / 2 skipped, got %+v", report)
	}
	if len(report.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %v", report.Errors)
	}
	if !strings.HasPrefix(report.Errors[0], "row 3:") {
		t.Errorf("errors must carry the row number, got %q", report.Errors[0])
	}
}

func TestImportVehicles_MissingRequiredColumn(t *testing.T) {
	svc := usecases.NewImportService(&mockVehicleRepo{}, &mockUserRepo{})

	csv := "plate_number,make\nKDA 123X,Toyota\n"
	if _, err := svc.ImportVehicles(context.Background(), strings.NewReader(csv)); err == nil {
		t.Fatal("expected error for missing device_id column")
	}
}

func TestImportVehicles_DefaultsStatusToActive(t *testing.T) {
	var batch []domain.Vehicle
	repo := &mockVehicleRepo{
		upsertBatchFn: func(ctx context.Context, vs []domain.Vehicle) error {
			batch = vs
			return nil
		},
	}
	svc := usecases.NewImportService(repo, &mockUserRepo{})

	csv := "plate_number,device_id\nKDA 123X,d1\n"
	if _, err := svc.ImportVehicles(context.Background(), strings.NewReader(csv)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch[0].Status != domain.VehicleActive {
		t.Errorf("expected default active, got %s", batch[0].Status)
	}
}

func TestImportUsers_ValidatesEmails(t *testing.T) {
	var batch []domain.User
	users := &mockUserRepo{
		upsertBatchFn: func(ctx context.Context, us []domain.User) error {
			batch = us
			return nil
		},
	}
	svc := usecases.NewImportService(&mockVehicleRepo{}, users)

	csv := `email,name,role
jane@fleetpulse.app,Jane,admin
not-an-email,Bob,
kim@fleetpulse.app,Kim,
`
	report, err := svc.ImportUsers(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Imported != 2 || report.Skipped != 1 {
		t.Fatalf("expected 2 imported / 1 skipped, got %+v", report)
	}
	if batch[0].Role != "admin" {
		t.Errorf("expected admin role, got %s", batch[0].Role)
	}
	if batch[1].Role != "viewer" {
		t.Errorf("expected default viewer role, got %s", batch[1].Role)
	}
	if !batch[0].Active {
		t.Error("imported users must be active")
	}
}

func TestImportUsers_MissingEmailColumn(t *testing.T) {
	svc := usecases.NewImportService(&mockVehicleRepo{}, &mockUserRepo{})

	if _, err := svc.ImportUsers(context.Background(), strings.NewReader("name\nJane\n")); err == nil {
		t.Fatal("expected error for missing email column")
	}
}
