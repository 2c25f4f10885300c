package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/jomondi/fleetpulse/internal/adapters/http"
	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
)

// ---- Mock repositories ----

type mockVehicleRepo struct {
	listFn     func(ctx context.Context, status domain.VehicleStatus) ([]domain.Vehicle, error)
	getByIDFn  func(ctx context.Context, id string) (*domain.Vehicle, error)
	upsertFn   func(ctx context.Context, v *domain.Vehicle) error
	upsertedCt int
}

func (m *mockVehicleRepo) Upsert(ctx context.Context, v *domain.Vehicle) error {
	m.upsertedCt++
	if m.upsertFn != nil {
		return m.upsertFn(ctx, v)
	}
	return nil
}
func (m *mockVehicleRepo) UpsertBatch(ctx context.Context, vs []domain.Vehicle) error { return nil }
func (m *mockVehicleRepo) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("not found")
}
func (m *mockVehicleRepo) GetByDeviceID(ctx context.Context, deviceID string) (*domain.Vehicle, error) {
	return nil, errors.New("not found")
}
func (m *mockVehicleRepo) List(ctx context.Context, status domain.VehicleStatus) ([]domain.Vehicle, error) {
	if m.listFn != nil {
		return m.listFn(ctx, status)
	}
	return nil, nil
}
func (m *mockVehicleRepo) Delete(ctx context.Context, id string) error { return nil }

type mockPositionRepo struct {
	latestAllFn func(ctx context.Context) ([]domain.VehiclePosition, error)
	historyFn   func(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]domain.VehiclePosition, error)
}

func (m *mockPositionRepo) Insert(ctx context.Context, vp *domain.VehiclePosition) error { return nil }
func (m *mockPositionRepo) InsertBatch(ctx context.Context, vps []domain.VehiclePosition) error {
	return nil
}
func (m *mockPositionRepo) LatestAll(ctx context.Context) ([]domain.VehiclePosition, error) {
	if m.latestAllFn != nil {
		return m.latestAllFn(ctx)
	}
	return nil, nil
}
func (m *mockPositionRepo) History(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]domain.VehiclePosition, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, vehicleID, from, to, limit)
	}
	return nil, nil
}

type mockGeofenceRepo struct {
	listActiveFn func(ctx context.Context) ([]domain.GeofenceZone, error)
}

func (m *mockGeofenceRepo) Upsert(ctx context.Context, zone *domain.GeofenceZone) error { return nil }
func (m *mockGeofenceRepo) GetByID(ctx context.Context, id string) (*domain.GeofenceZone, error) {
	return nil, nil
}
func (m *mockGeofenceRepo) ListActive(ctx context.Context) ([]domain.GeofenceZone, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}
func (m *mockGeofenceRepo) Delete(ctx context.Context, id string) error { return nil }
func (m *mockGeofenceRepo) InsertAlert(ctx context.Context, alert *domain.GeofenceAlert) error {
	return nil
}
func (m *mockGeofenceRepo) MarkNotified(ctx context.Context, alertID string) error   { return nil }
func (m *mockGeofenceRepo) RevertNotified(ctx context.Context, alertID string) error { return nil }

type mockBillingRepo struct {
	snapshotFn func(ctx context.Context) (*domain.BillingConfig, error)
	calls      int
}

func (m *mockBillingRepo) Snapshot(ctx context.Context) (*domain.BillingConfig, error) {
	m.calls++
	if m.snapshotFn != nil {
		return m.snapshotFn(ctx)
	}
	return &domain.BillingConfig{}, nil
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type mockUserRepo struct {
	listFn func(ctx context.Context) ([]domain.User, error)
}

func (m *mockUserRepo) Upsert(ctx context.Context, u *domain.User) error        { return nil }
func (m *mockUserRepo) UpsertBatch(ctx context.Context, us []domain.User) error { return nil }
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, nil
}
func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockTemplateRepo struct{}

func (m *mockTemplateRepo) GetBySlug(ctx context.Context, slug, channel string) (*domain.NotificationTemplate, error) {
	return nil, errors.New("not found")
}
func (m *mockTemplateRepo) List(ctx context.Context) ([]domain.NotificationTemplate, error) {
	return nil, nil
}
func (m *mockTemplateRepo) Upsert(ctx context.Context, tpl *domain.NotificationTemplate) error {
	return nil
}

type mockPublisher struct{}

func (m *mockPublisher) PublishPosition(ctx context.Context, vp *domain.VehiclePosition) error {
	return nil
}
func (m *mockPublisher) PublishGeofenceAlert(ctx context.Context, alert *domain.GeofenceAlert) error {
	return nil
}
func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	vehicles := &mockVehicleRepo{}
	positions := &mockPositionRepo{}
	d := &handler.Dependencies{
		Vehicles:  usecases.NewVehicleService(vehicles, positions, nil),
		Map:       usecases.NewMapService(positions, usecases.NewViewportVirtualizer(usecases.DefaultVirtualizerOptions())),
		Fees:      usecases.NewFeeService(&mockBillingRepo{}, nil),
		Geofences: usecases.NewGeofenceService(&mockGeofenceRepo{}, &mockPublisher{}),
		Users:     usecases.NewUserService(&mockUserRepo{}),
		Templates: usecases.NewTemplateService(&mockTemplateRepo{}),
		Importer:  usecases.NewImportService(vehicles, &mockUserRepo{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ---- Vehicle handler tests ----

func TestListVehicles_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vehicles = usecases.NewVehicleService(&mockVehicleRepo{
			listFn: func(ctx context.Context, status domain.VehicleStatus) ([]domain.Vehicle, error) {
				return []domain.Vehicle{
					{ID: "v1", PlateNumber: "KDA 123X", DeviceID: "d1"},
					{ID: "v2", PlateNumber: "KDB 456Y", DeviceID: "d2"},
				}, nil
			},
		}, &mockPositionRepo{}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vehicles", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Vehicle `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 2 {
		t.Errorf("expected total 2, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 vehicles, got %d", len(result.Data))
	}
}

func TestListVehicles_BadStatus(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/vehicles?status=flying", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
}

func TestListVehicles_Pagination(t *testing.T) {
	fleet := make([]domain.Vehicle, 5)
	for i := range fleet {
		fleet[i] = domain.Vehicle{ID: fmt.Sprintf("v%d", i), PlateNumber: fmt.Sprintf("KD%d", i)}
	}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vehicles = usecases.NewVehicleService(&mockVehicleRepo{
			listFn: func(ctx context.Context, status domain.VehicleStatus) ([]domain.Vehicle, error) {
				return fleet, nil
			},
		}, &mockPositionRepo{}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vehicles?offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Vehicle `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 || len(result.Data) != 2 || result.Pagination.Offset != 2 {
		t.Errorf("unexpected page: %+v", result.Pagination)
	}
}

func TestGetVehicle_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/vehicles/nonexistent", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSaveVehicle_Success(t *testing.T) {
	repo := &mockVehicleRepo{}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vehicles = usecases.NewVehicleService(repo, &mockPositionRepo{}, nil)
	})
	app := setupApp(deps)

	body := strings.NewReader(`{"plate_number":"KDA 123X","device_id":"d1"}`)
	req := httptest.NewRequest("POST", "/v1/vehicles", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if repo.upsertedCt != 1 {
		t.Errorf("expected 1 upsert, got %d", repo.upsertedCt)
	}
}

func TestSaveVehicle_MissingPlate(t *testing.T) {
	app := setupApp(makeDeps())

	body := strings.NewReader(`{"device_id":"d1"}`)
	req := httptest.NewRequest("POST", "/v1/vehicles", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVehicleHistory_BadTimestamp(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/vehicles/v1/history?from=yesterday", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestVehicleHistory_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vehicles = usecases.NewVehicleService(&mockVehicleRepo{}, &mockPositionRepo{
			historyFn: func(ctx context.Context, vehicleID string, from, to time.Time, limit int) ([]domain.VehiclePosition, error) {
				return []domain.VehiclePosition{
					{VehicleID: vehicleID, Location: domain.GeoPoint{Lat: -1.29, Lon: 36.82}},
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vehicles/v1/history", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		VehicleID string                   `json:"vehicle_id"`
		Count     int                      `json:"count"`
		Positions []domain.VehiclePosition `json:"positions"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Count != 1 || result.VehicleID != "v1" {
		t.Errorf("unexpected history response: %+v", result)
	}
}

// ---- Viewport handler tests ----

func TestMapViewport_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		positions := &mockPositionRepo{
			latestAllFn: func(ctx context.Context) ([]domain.VehiclePosition, error) {
				return []domain.VehiclePosition{
					{VehicleID: "v1", Location: domain.GeoPoint{Lat: -1.29, Lon: 36.82}},
					{VehicleID: "v2", Location: domain.GeoPoint{Lat: -1.30, Lon: 36.83}},
				}, nil
			},
		}
		d.Map = usecases.NewMapService(positions, usecases.NewViewportVirtualizer(usecases.DefaultVirtualizerOptions()))
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/map/viewport?north=0&south=-2&east=37&west=35&zoom=12", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.VirtualizedResult
	json.NewDecoder(resp.Body).Decode(&result)
	if result.TotalCount != 2 {
		t.Errorf("expected 2 vehicles in view, got %d", result.TotalCount)
	}
	if result.RenderLevel != domain.RenderIndividual {
		t.Errorf("expected individual render, got %s", result.RenderLevel)
	}
}

func TestMapViewport_MissingBounds(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/map/viewport?north=0&south=-2&zoom=12", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMapViewport_BoundsBelowRange(t *testing.T) {
	app := setupApp(makeDeps())

	for _, query := range []string{
		"north=0&south=-200&east=37&west=35&zoom=12",
		"north=0&south=-2&east=37&west=-500&zoom=12",
	} {
		req := httptest.NewRequest("GET", "/v1/map/viewport?"+query, nil)
		resp, _ := app.Test(req, -1)
		if resp.StatusCode != 400 {
			t.Errorf("query %q: expected 400, got %d", query, resp.StatusCode)
		}
	}
}

func TestMapViewport_InvertedBounds(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/map/viewport?north=-2&south=0&east=37&west=35&zoom=12", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMapViewport_BadZoom(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/map/viewport?north=0&south=-2&east=37&west=35&zoom=40", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMapViewport_CacheControlPrivate(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/map/viewport?north=0&south=-2&east=37&west=35&zoom=12", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "private, max-age=0" {
		t.Errorf("live positions must not be shared-cached, got %q", cc)
	}
}

// ---- Fee handler tests ----

func feeSnapshot() *domain.BillingConfig {
	rate := 0.10
	fee := 50.0
	return &domain.BillingConfig{
		Countries: []domain.CountrySetting{
			{CountryCode: "KE", CommissionRate: &rate, RegistrationFee: &fee, Currency: "KES"},
		},
		Global: domain.GlobalSetting{Currency: "USD"},
	}
}

func TestResolveFees_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Fees = usecases.NewFeeService(&mockBillingRepo{
			snapshotFn: func(ctx context.Context) (*domain.BillingConfig, error) {
				return feeSnapshot(), nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/fees/resolve?merchant_id=m1&country=KE", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var fee domain.ResolvedFee
	json.NewDecoder(resp.Body).Decode(&fee)
	if fee.Currency != "KES" {
		t.Errorf("expected KES, got %s", fee.Currency)
	}
	if fee.CommissionSource != domain.FeeSourceCountryDefault {
		t.Errorf("expected country_default, got %s", fee.CommissionSource)
	}
}

func TestResolveFees_MissingCountry(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/fees/resolve?merchant_id=m1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestResolveFees_ConfigUnavailable(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Fees = usecases.NewFeeService(&mockBillingRepo{
			snapshotFn: func(ctx context.Context) (*domain.BillingConfig, error) {
				return nil, errors.New("connection refused")
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/fees/resolve?country=KE", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("config outage must be 503, not 404: got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "service_unavailable" {
		t.Errorf("expected service_unavailable, got %s", apiErr.Code)
	}
}

func TestReloadFees_DropsCachedSnapshot(t *testing.T) {
	repo := &mockBillingRepo{
		snapshotFn: func(ctx context.Context) (*domain.BillingConfig, error) {
			return feeSnapshot(), nil
		},
	}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Fees = usecases.NewFeeService(repo, newMemCache())
	})
	app := setupApp(deps)

	// Warm the snapshot, reload, then resolve again: the repo must be hit twice.
	resolve := httptest.NewRequest("GET", "/v1/fees/resolve?country=KE", nil)
	if resp, _ := app.Test(resolve, -1); resp.StatusCode != 200 {
		t.Fatalf("warm resolve: expected 200, got %d", resp.StatusCode)
	}

	reload := httptest.NewRequest("POST", "/v1/fees/reload", nil)
	resp, _ := app.Test(reload, -1)
	if resp.StatusCode != 204 {
		t.Fatalf("reload: expected 204, got %d", resp.StatusCode)
	}

	resolve = httptest.NewRequest("GET", "/v1/fees/resolve?country=KE", nil)
	if resp, _ := app.Test(resolve, -1); resp.StatusCode != 200 {
		t.Fatalf("post-reload resolve: expected 200, got %d", resp.StatusCode)
	}
	if repo.calls != 2 {
		t.Errorf("expected 2 repo snapshots after reload, got %d", repo.calls)
	}
}

// ---- Geofence handler tests ----

func TestListGeofences_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Geofences = usecases.NewGeofenceService(&mockGeofenceRepo{
			listActiveFn: func(ctx context.Context) ([]domain.GeofenceZone, error) {
				return []domain.GeofenceZone{
					{ID: "z1", Name: "Main Depot", RadiusM: 500},
				}, nil
			},
		}, &mockPublisher{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/geofences", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var zones []domain.GeofenceZone
	json.NewDecoder(resp.Body).Decode(&zones)
	if len(zones) != 1 || zones[0].Name != "Main Depot" {
		t.Errorf("unexpected zones: %v", zones)
	}
}

func TestSaveGeofence_InvalidRadius(t *testing.T) {
	app := setupApp(makeDeps())

	body := strings.NewReader(`{"name":"Depot","center":{"lat":-1.29,"lon":36.82},"radius_m":0}`)
	req := httptest.NewRequest("POST", "/v1/geofences", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Import handler tests ----

func TestImportVehicles_CSV(t *testing.T) {
	app := setupApp(makeDeps())

	csv := "plate_number,device_id\nKDA 123X,d1\nKDB 456Y,\n"
	req := httptest.NewRequest("POST", "/v1/import/vehicles", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var report usecases.ImportReport
	json.NewDecoder(resp.Body).Decode(&report)
	if report.Imported != 1 || report.Skipped != 1 {
		t.Errorf("expected 1 imported / 1 skipped, got %+v", report)
	}
}

func TestImportVehicles_EmptyBody(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/import/vehicles", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- User handler tests ----

func TestSaveUser_UnknownRole(t *testing.T) {
	app := setupApp(makeDeps())

	body := strings.NewReader(`{"email":"jane@fleetpulse.app","role":"superuser"}`)
	req := httptest.NewRequest("POST", "/v1/users", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	// DB, NATS, Cache are nil → should report not ready
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Middleware behavior ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if v := resp.Header.Get("X-API-Version"); v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestDeprecatedEndpointHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/positions/latest", nil)
	resp, _ := app.Test(req, -1)

	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if resp.Header.Get("Sunset") == "" {
		t.Error("expected Sunset header")
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, "/v1/map/viewport") {
		t.Errorf("expected successor link to the viewport endpoint, got %q", link)
	}
}

func TestListVehicles_LinkHeader(t *testing.T) {
	fleet := make([]domain.Vehicle, 10)
	for i := range fleet {
		fleet[i] = domain.Vehicle{ID: fmt.Sprintf("v%d", i)}
	}
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vehicles = usecases.NewVehicleService(&mockVehicleRepo{
			listFn: func(ctx context.Context, status domain.VehicleStatus) ([]domain.Vehicle, error) {
				return fleet, nil
			},
		}, &mockPositionRepo{}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/vehicles?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	if link == "" {
		t.Fatal("expected Link header, got empty")
	}
	if !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %s", link)
	}
	if !strings.Contains(link, `rel="first"`) {
		t.Errorf("expected first link, got %s", link)
	}
	if !strings.Contains(link, `rel="last"`) {
		t.Errorf("expected last link, got %s", link)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}

// ---- GraphQL handler tests ----

func TestGraphQL_Vehicles(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Vehicles = usecases.NewVehicleService(&mockVehicleRepo{
			listFn: func(ctx context.Context, status domain.VehicleStatus) ([]domain.Vehicle, error) {
				return []domain.Vehicle{{ID: "v1", PlateNumber: "KDA 123X"}}, nil
			},
		}, &mockPositionRepo{}, nil)
	})
	app := setupApp(deps)

	body := strings.NewReader(`{"query":"{ vehicles { id plate_number } }"}`)
	req := httptest.NewRequest("POST", "/graphql", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Vehicles []struct {
				ID          string `json:"id"`
				PlateNumber string `json:"plate_number"`
			} `json:"vehicles"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Data.Vehicles) != 1 || result.Data.Vehicles[0].PlateNumber != "KDA 123X" {
		t.Errorf("unexpected graphql result: %+v", result.Data)
	}
}

func TestGraphQL_ResolveFeesRequiresCountry(t *testing.T) {
	app := setupApp(makeDeps())

	body := strings.NewReader(`{"query":"{ resolveFees(merchant_id: \"m1\") { currency } }"}`)
	req := httptest.NewRequest("POST", "/graphql", body)
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 with graphql errors, got %d", resp.StatusCode)
	}

	var result struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Errors) == 0 {
		t.Error("expected a graphql error for the missing country argument")
	}
}
