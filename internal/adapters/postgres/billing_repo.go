package postgres

import (
	"context"
	"fmt"

	"github.com/jomondi/fleetpulse/internal/core/domain"
)

// BillingRepo implements ports.BillingConfigRepository. The four tiers live
// in separate tables and are loaded together as one snapshot so fee
// resolution is deterministic against a consistent view.
type BillingRepo struct {
	db *DB
}

func NewBillingRepo(db *DB) *BillingRepo {
	return &BillingRepo{db: db}
}

func (r *BillingRepo) Snapshot(ctx context.Context) (*domain.BillingConfig, error) {
	cfg := &domain.BillingConfig{}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT merchant_id, COALESCE(country_code, ''), commission_rate, registration_fee
		FROM merchant_fee_overrides
	`)
	if err != nil {
		return nil, fmt.Errorf("load merchant overrides: %w", err)
	}
	for rows.Next() {
		var o domain.MerchantOverride
		if err := rows.Scan(&o.MerchantID, &o.CountryCode, &o.CommissionRate, &o.RegistrationFee); err != nil {
			rows.Close()
			return nil, err
		}
		cfg.Overrides = append(cfg.Overrides, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT category_id, country_code, commission_rate
		FROM category_commission_rates
	`)
	if err != nil {
		return nil, fmt.Errorf("load category rates: %w", err)
	}
	for rows.Next() {
		var cr domain.CategoryRate
		if err := rows.Scan(&cr.CategoryID, &cr.CountryCode, &cr.CommissionRate); err != nil {
			rows.Close()
			return nil, err
		}
		cfg.CategoryRates = append(cfg.CategoryRates, cr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Pool.Query(ctx, `
		SELECT country_code, commission_rate, registration_fee, currency
		FROM country_settings
	`)
	if err != nil {
		return nil, fmt.Errorf("load country settings: %w", err)
	}
	for rows.Next() {
		var cs domain.CountrySetting
		if err := rows.Scan(&cs.CountryCode, &cs.CommissionRate, &cs.RegistrationFee, &cs.Currency); err != nil {
			rows.Close()
			return nil, err
		}
		cfg.Countries = append(cfg.Countries, cs)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row := r.db.Pool.QueryRow(ctx, `
		SELECT commission_rate, registration_fee, currency
		FROM global_billing_settings
		ORDER BY updated_at DESC
		LIMIT 1
	`)
	if err := row.Scan(&cfg.Global.CommissionRate, &cfg.Global.RegistrationFee, &cfg.Global.Currency); err != nil {
		return nil, fmt.Errorf("load global settings: %w", err)
	}

	return cfg, nil
}
