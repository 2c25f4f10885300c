package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
)

// --- Mock BillingConfigRepository ---

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

// --- In-memory CacheService ---

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("cache miss")
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func ptr(f float64) *float64 { return &f }

// A Kenya-centric snapshot exercising every tier.
func kenyaConfig() *domain.BillingConfig {
	return &domain.BillingConfig{
		Overrides: []domain.MerchantOverride{
			{MerchantID: "m1", CountryCode: "KE", CommissionRate: ptr(0.05)},
			{MerchantID: "m2", CommissionRate: ptr(0.07), RegistrationFee: ptr(25)},
		},
		CategoryRates: []domain.CategoryRate{
			{CategoryID: "trucks", CountryCode: "KE", CommissionRate: ptr(0.08)},
		},
		Countries: []domain.CountrySetting{
			{CountryCode: "KE", CommissionRate: ptr(0.10), RegistrationFee: ptr(50), Currency: "KES"},
		},
		Global: domain.GlobalSetting{
			CommissionRate:  ptr(0.12),
			RegistrationFee: ptr(100),
			Currency:        "USD",
		},
	}
}

func TestResolveFees_MerchantOverrideWins(t *testing.T) {
	fee := usecases.ResolveFees(kenyaConfig(), domain.FeeContext{
		MerchantID:  "m1",
		CategoryID:  "trucks",
		CountryCode: "KE",
	})

	// Commission comes from the override even though category and country
	// rates exist; the override has no registration fee, so that field falls
	// through to the country default independently.
	if fee.CommissionSource != domain.FeeSourceMerchantOverride || *fee.CommissionRate != 0.05 {
		t.Errorf("commission: want 0.05 from merchant_override, got %v from %s", fee.CommissionRate, fee.CommissionSource)
	}
	if fee.RegistrationSource != domain.FeeSourceCountryDefault || *fee.RegistrationFee != 50 {
		t.Errorf("registration: want 50 from country_default, got %v from %s", fee.RegistrationFee, fee.RegistrationSource)
	}
	if fee.Currency != "KES" {
		t.Errorf("expected KES, got %s", fee.Currency)
	}
}

func TestResolveFees_CountryQualifiedOverrideBeatsGlobalOverride(t *testing.T) {
	cfg := kenyaConfig()
	cfg.Overrides = append(cfg.Overrides, domain.MerchantOverride{
		MerchantID: "m1", CommissionRate: ptr(0.01),
	})

	fee := usecases.ResolveFees(cfg, domain.FeeContext{MerchantID: "m1", CountryCode: "KE"})
	if *fee.CommissionRate != 0.05 {
		t.Errorf("country-qualified override must win, got %v", *fee.CommissionRate)
	}

	// For a country the merchant has no qualified override in, the
	// merchant-global one applies.
	cfg.Countries = append(cfg.Countries, domain.CountrySetting{CountryCode: "UG", Currency: "UGX"})
	fee = usecases.ResolveFees(cfg, domain.FeeContext{MerchantID: "m1", CountryCode: "UG"})
	if fee.CommissionSource != domain.FeeSourceMerchantOverride || *fee.CommissionRate != 0.01 {
		t.Errorf("expected merchant-global override 0.01, got %v from %s", fee.CommissionRate, fee.CommissionSource)
	}
}

func TestResolveFees_CategoryRateForCommissionOnly(t *testing.T) {
	fee := usecases.ResolveFees(kenyaConfig(), domain.FeeContext{
		CategoryID:  "trucks",
		CountryCode: "KE",
	})

	if fee.CommissionSource != domain.FeeSourceCategoryRate || *fee.CommissionRate != 0.08 {
		t.Errorf("commission: want 0.08 from category_rate, got %v from %s", fee.CommissionRate, fee.CommissionSource)
	}
	// Registration has no category tier
	if fee.RegistrationSource != domain.FeeSourceCountryDefault {
		t.Errorf("registration must skip the category tier, got %s", fee.RegistrationSource)
	}
}

func TestResolveFees_GlobalFallback(t *testing.T) {
	fee := usecases.ResolveFees(kenyaConfig(), domain.FeeContext{CountryCode: "TZ"})

	if fee.CommissionSource != domain.FeeSourceGlobalDefault || *fee.CommissionRate != 0.12 {
		t.Errorf("commission: want global 0.12, got %v from %s", fee.CommissionRate, fee.CommissionSource)
	}
	if fee.RegistrationSource != domain.FeeSourceGlobalDefault || *fee.RegistrationFee != 100 {
		t.Errorf("registration: want global 100, got %v from %s", fee.RegistrationFee, fee.RegistrationSource)
	}
	if fee.Currency != "USD" {
		t.Errorf("unknown country falls back to global currency, got %s", fee.Currency)
	}
}

func TestResolveFees_NotFoundIsNotAnError(t *testing.T) {
	cfg := &domain.BillingConfig{Global: domain.GlobalSetting{Currency: "USD"}}
	fee := usecases.ResolveFees(cfg, domain.FeeContext{CountryCode: "KE"})

	if fee.CommissionRate != nil || fee.CommissionSource != domain.FeeSourceNotFound {
		t.Errorf("expected not_found commission, got %v from %s", fee.CommissionRate, fee.CommissionSource)
	}
	if fee.RegistrationFee != nil || fee.RegistrationSource != domain.FeeSourceNotFound {
		t.Errorf("expected not_found registration, got %v from %s", fee.RegistrationFee, fee.RegistrationSource)
	}
}

func TestResolveFees_Deterministic(t *testing.T) {
	cfg := kenyaConfig()
	fctx := domain.FeeContext{MerchantID: "m2", CategoryID: "trucks", CountryCode: "KE"}

	first := usecases.ResolveFees(cfg, fctx)
	second := usecases.ResolveFees(cfg, fctx)

	if *first.CommissionRate != *second.CommissionRate ||
		first.CommissionSource != second.CommissionSource ||
		*first.RegistrationFee != *second.RegistrationFee ||
		first.Currency != second.Currency {
		t.Error("identical context and snapshot must resolve identically")
	}
}

func TestFeeService_RequiresCountry(t *testing.T) {
	svc := usecases.NewFeeService(&mockBillingRepo{}, nil)
	if _, err := svc.Resolve(context.Background(), domain.FeeContext{MerchantID: "m1"}); err == nil {
		t.Fatal("expected error for missing country code")
	}
}

func TestFeeService_SnapshotFailureIsUnavailable(t *testing.T) {
	repo := &mockBillingRepo{
		snapshotFn: func(ctx context.Context) (*domain.BillingConfig, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := usecases.NewFeeService(repo, nil)

	_, err := svc.Resolve(context.Background(), domain.FeeContext{CountryCode: "KE"})
	if !errors.Is(err, domain.ErrBillingConfigUnavailable) {
		t.Fatalf("expected ErrBillingConfigUnavailable, got %v", err)
	}
}

func TestFeeService_SnapshotCached(t *testing.T) {
	repo := &mockBillingRepo{
		snapshotFn: func(ctx context.Context) (*domain.BillingConfig, error) {
			return kenyaConfig(), nil
		},
	}
	cache := newMemCache()
	svc := usecases.NewFeeService(repo, cache)
	ctx := context.Background()

	if _, err := svc.Resolve(ctx, domain.FeeContext{CountryCode: "KE"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Resolve(ctx, domain.FeeContext{CountryCode: "KE"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("expected 1 repo load with warm cache, got %d", repo.calls)
	}

	svc.InvalidateSnapshot(ctx)
	if _, err := svc.Resolve(ctx, domain.FeeContext{CountryCode: "KE"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 2 {
		t.Errorf("expected reload after invalidation, got %d calls", repo.calls)
	}
}
