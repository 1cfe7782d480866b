package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"home-energy-backend/config"
	"home-energy-backend/internal/model"
	"home-energy-backend/internal/store"
)

var (
	oneHundred = decimal.NewFromInt(100)
)

// TariffPatch is a partial update of the tariff settings. Nil fields are
// left untouched; a provided field always overwrites.
type TariffPatch struct {
	NetRatePerKWh   *decimal.Decimal `json:"netRatePerKwh"`
	GrossRatePerKWh *decimal.Decimal `json:"grossRatePerKwh"`
	VATPercent      *decimal.Decimal `json:"vatPercent"`
}

// Rates resolves the price per kWh. The stored settings' gross rate is the
// working rate; per-category config overrides and the config default are the
// fallbacks, so rate resolution never fails.
type Rates struct {
	store       store.Store
	defaultRate decimal.Decimal
	categories  map[string]decimal.Decimal
}

// NewRates builds a rate resolver over the persisted settings and the
// configured fallbacks.
func NewRates(s store.Store, cfg config.TariffConfig) *Rates {
	categories := make(map[string]decimal.Decimal, len(cfg.Categories))
	for cat, rate := range cfg.Categories {
		categories[cat] = decimal.NewFromFloat(rate)
	}
	return &Rates{
		store:       s,
		defaultRate: decimal.NewFromFloat(cfg.DefaultRatePerKWh),
		categories:  categories,
	}
}

// Current returns the settings singleton, creating the zero-rate default row
// on first access.
func (r *Rates) Current(ctx context.Context) (model.TariffSettings, error) {
	return r.store.GetOrInitTariffSettings(ctx)
}

// UpdateSettings applies a partial update and, when the net rate is still
// missing but gross and VAT are now both known, backfills
// net = gross / (1 + VAT/100) to 4 decimals. The backfill runs only here,
// never implicitly at read time.
func (r *Rates) UpdateSettings(ctx context.Context, patch TariffPatch) (model.TariffSettings, error) {
	settings, err := r.store.GetOrInitTariffSettings(ctx)
	if err != nil {
		return model.TariffSettings{}, err
	}

	if patch.NetRatePerKWh != nil {
		settings.NetRatePerKWh = decimal.NewNullDecimal(*patch.NetRatePerKWh)
	}
	if patch.GrossRatePerKWh != nil {
		settings.GrossRatePerKWh = decimal.NewNullDecimal(*patch.GrossRatePerKWh)
	}
	if patch.VATPercent != nil {
		settings.VATPercent = decimal.NewNullDecimal(*patch.VATPercent)
	}

	if !settings.NetRatePerKWh.Valid && settings.GrossRatePerKWh.Valid && settings.VATPercent.Valid {
		divider := decimal.NewFromInt(1).Add(settings.VATPercent.Decimal.Div(oneHundred))
		net := settings.GrossRatePerKWh.Decimal.DivRound(divider, 4)
		settings.NetRatePerKWh = decimal.NewNullDecimal(net)
	}

	if err := r.store.SaveTariffSettings(ctx, &settings); err != nil {
		return model.TariffSettings{}, err
	}
	return settings, nil
}

// RateForCategory resolves the gross rate per kWh for a device category.
// Unmapped (or empty) categories fall back to the stored gross rate, then to
// the configured default; there is no "no rate" failure mode.
func (r *Rates) RateForCategory(ctx context.Context, category string) (decimal.Decimal, error) {
	if category != "" {
		if rate, ok := r.categories[category]; ok {
			return rate, nil
		}
	}

	settings, err := r.store.GetOrInitTariffSettings(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if settings.GrossRatePerKWh.Valid {
		return settings.GrossRatePerKWh.Decimal, nil
	}
	return r.defaultRate, nil
}
