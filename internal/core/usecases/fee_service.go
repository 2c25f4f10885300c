package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/ports"
)

const billingSnapshotKey = "billing:snapshot"

// FeeService resolves commission rates and registration fees by walking the
// four-tier configuration chain: merchant override, category rate, country
// default, global default.
type FeeService struct {
	billing ports.BillingConfigRepository
	cache   ports.CacheService
}

// NewFeeService creates a new FeeService.
func NewFeeService(billing ports.BillingConfigRepository, cache ports.CacheService) *FeeService {
	return &FeeService{billing: billing, cache: cache}
}

// Resolve loads the current billing snapshot and resolves fees for the given
// context. A snapshot load failure surfaces as ErrBillingConfigUnavailable so
// callers can show a retry affordance instead of rendering "not configured".
func (s *FeeService) Resolve(ctx context.Context, fctx domain.FeeContext) (*domain.ResolvedFee, error) {
	if fctx.CountryCode == "" {
		return nil, fmt.Errorf("country code is required")
	}

	cfg, err := s.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBillingConfigUnavailable, err)
	}

	resolved := ResolveFees(cfg, fctx)
	return &resolved, nil
}

// InvalidateSnapshot drops the cached billing snapshot after a config write.
func (s *FeeService) InvalidateSnapshot(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, billingSnapshotKey)
	}
}

func (s *FeeService) snapshot(ctx context.Context) (*domain.BillingConfig, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, billingSnapshotKey); err == nil {
			var cfg domain.BillingConfig
			if err := json.Unmarshal(data, &cfg); err == nil {
				return &cfg, nil
			}
		}
	}

	cfg, err := s.billing.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Billing config changes rarely; writes invalidate explicitly.
	if s.cache != nil {
		if data, err := json.Marshal(cfg); err == nil {
			_ = s.cache.Set(ctx, billingSnapshotKey, data, 600)
		}
	}

	return cfg, nil
}

// ResolveFees walks the precedence chain over a configuration snapshot.
// Commission and registration fee are resolved independently: a match on one
// does not short-circuit the other. Pure function of its inputs.
func ResolveFees(cfg *domain.BillingConfig, fctx domain.FeeContext) domain.ResolvedFee {
	resolved := domain.ResolvedFee{
		CommissionSource:   domain.FeeSourceNotFound,
		RegistrationSource: domain.FeeSourceNotFound,
		Currency:           cfg.Global.Currency,
	}

	var country *domain.CountrySetting
	for i := range cfg.Countries {
		if cfg.Countries[i].CountryCode == fctx.CountryCode {
			country = &cfg.Countries[i]
			break
		}
	}
	if country != nil && country.Currency != "" {
		resolved.Currency = country.Currency
	}

	// Tier 1: merchant override, country-qualified before merchant-global.
	override := findOverride(cfg.Overrides, fctx.MerchantID, fctx.CountryCode)

	if override != nil && override.CommissionRate != nil {
		resolved.CommissionRate = override.CommissionRate
		resolved.CommissionSource = domain.FeeSourceMerchantOverride
	}
	if override != nil && override.RegistrationFee != nil {
		resolved.RegistrationFee = override.RegistrationFee
		resolved.RegistrationSource = domain.FeeSourceMerchantOverride
	}

	// Tier 2: category rate (commission only).
	if resolved.CommissionRate == nil && fctx.CategoryID != "" {
		for i := range cfg.CategoryRates {
			cr := &cfg.CategoryRates[i]
			if cr.CategoryID == fctx.CategoryID && cr.CountryCode == fctx.CountryCode && cr.CommissionRate != nil {
				resolved.CommissionRate = cr.CommissionRate
				resolved.CommissionSource = domain.FeeSourceCategoryRate
				break
			}
		}
	}

	// Tier 3: country default.
	if country != nil {
		if resolved.CommissionRate == nil && country.CommissionRate != nil {
			resolved.CommissionRate = country.CommissionRate
			resolved.CommissionSource = domain.FeeSourceCountryDefault
		}
		if resolved.RegistrationFee == nil && country.RegistrationFee != nil {
			resolved.RegistrationFee = country.RegistrationFee
			resolved.RegistrationSource = domain.FeeSourceCountryDefault
		}
	}

	// Tier 4: global default, terminal fallback.
	if resolved.CommissionRate == nil && cfg.Global.CommissionRate != nil {
		resolved.CommissionRate = cfg.Global.CommissionRate
		resolved.CommissionSource = domain.FeeSourceGlobalDefault
	}
	if resolved.RegistrationFee == nil && cfg.Global.RegistrationFee != nil {
		resolved.RegistrationFee = cfg.Global.RegistrationFee
		resolved.RegistrationSource = domain.FeeSourceGlobalDefault
	}

	return resolved
}

// findOverride prefers a country-qualified override, falling back to the
// merchant's global override.
func findOverride(overrides []domain.MerchantOverride, merchantID, countryCode string) *domain.MerchantOverride {
	if merchantID == "" {
		return nil
	}
	var global *domain.MerchantOverride
	for i := range overrides {
		o := &overrides[i]
		if o.MerchantID != merchantID {
			continue
		}
		if o.CountryCode == countryCode {
			return o
		}
		if o.CountryCode == "" && global == nil {
			global = o
		}
	}
	return global
}
