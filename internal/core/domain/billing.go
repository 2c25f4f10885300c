package domain

import "errors"

// ErrBillingConfigUnavailable signals that the billing configuration snapshot
// could not be loaded. It is an infrastructure failure, distinct from the
// valid business state of no fee being configured (FeeSourceNotFound).
var ErrBillingConfigUnavailable = errors.New("billing configuration unavailable")

// FeeContext identifies which scopes apply to a fee calculation.
// MerchantID and CategoryID may be empty; CountryCode is required.
type FeeContext struct {
	MerchantID  string `json:"merchant_id,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
	CountryCode string `json:"country_code"`
}

// FeeSource labels which configuration tier produced a resolved value.
type FeeSource string

const (
	FeeSourceMerchantOverride FeeSource = "merchant_override"
	FeeSourceCategoryRate     FeeSource = "category_rate"
	FeeSourceCountryDefault   FeeSource = "country_default"
	FeeSourceGlobalDefault    FeeSource = "global_default"
	FeeSourceNotFound         FeeSource = "not_found"
)

// ResolvedFee carries the resolved values plus provenance for auditability.
// A nil value with FeeSourceNotFound means "not configured", which callers
// must treat as a valid outcome rather than an error.
type ResolvedFee struct {
	CommissionRate     *float64  `json:"commission_rate"`
	CommissionSource   FeeSource `json:"commission_source"`
	RegistrationFee    *float64  `json:"registration_fee"`
	RegistrationSource FeeSource `json:"registration_source"`
	Currency           string    `json:"currency"`
}

// MerchantOverride is a merchant-scoped fee override. An empty CountryCode
// makes the override global for the merchant.
type MerchantOverride struct {
	MerchantID      string   `json:"merchant_id"`
	CountryCode     string   `json:"country_code,omitempty"`
	CommissionRate  *float64 `json:"commission_rate,omitempty"`
	RegistrationFee *float64 `json:"registration_fee,omitempty"`
}

// CategoryRate is a category+country commission rate. There is no
// registration-fee analog at this tier.
type CategoryRate struct {
	CategoryID     string   `json:"category_id"`
	CountryCode    string   `json:"country_code"`
	CommissionRate *float64 `json:"commission_rate,omitempty"`
}

// CountrySetting holds a country's default fees and currency.
type CountrySetting struct {
	CountryCode     string   `json:"country_code"`
	CommissionRate  *float64 `json:"commission_rate,omitempty"`
	RegistrationFee *float64 `json:"registration_fee,omitempty"`
	Currency        string   `json:"currency"`
}

// GlobalSetting is the terminal fallback tier.
type GlobalSetting struct {
	CommissionRate  *float64 `json:"commission_rate,omitempty"`
	RegistrationFee *float64 `json:"registration_fee,omitempty"`
	Currency        string   `json:"currency"`
}

// BillingConfig is a full four-tier configuration snapshot. Resolution over a
// snapshot is deterministic: identical context + identical snapshot always
// produce identical output.
type BillingConfig struct {
	Overrides     []MerchantOverride `json:"overrides"`
	CategoryRates []CategoryRate     `json:"category_rates"`
	Countries     []CountrySetting   `json:"countries"`
	Global        GlobalSetting      `json:"global"`
}
