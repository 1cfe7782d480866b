package billing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-energy-backend/config"
)

func dp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestRates_UpdateSettings(t *testing.T) {
	t.Run("Net is backfilled from gross and VAT", func(t *testing.T) {
		s := newTestStore(t)
		rates := NewRates(s, config.TariffConfig{})

		settings, err := rates.UpdateSettings(context.Background(), TariffPatch{
			GrossRatePerKWh: dp("1.23"),
			VATPercent:      dp("23"),
		})
		require.NoError(t, err)

		require.True(t, settings.NetRatePerKWh.Valid)
		assert.Equal(t, "1.0000", settings.NetRatePerKWh.Decimal.StringFixed(4))
	})

	t.Run("Explicit net is never overwritten", func(t *testing.T) {
		s := newTestStore(t)
		rates := NewRates(s, config.TariffConfig{})

		settings, err := rates.UpdateSettings(context.Background(), TariffPatch{
			NetRatePerKWh:   dp("0.80"),
			GrossRatePerKWh: dp("1.23"),
			VATPercent:      dp("23"),
		})
		require.NoError(t, err)

		assert.Equal(t, "0.80", settings.NetRatePerKWh.Decimal.StringFixed(2))
	})

	t.Run("Partial update leaves other fields alone", func(t *testing.T) {
		s := newTestStore(t)
		rates := NewRates(s, config.TariffConfig{})
		ctx := context.Background()

		_, err := rates.UpdateSettings(ctx, TariffPatch{
			GrossRatePerKWh: dp("1.10"),
			VATPercent:      dp("23"),
		})
		require.NoError(t, err)

		settings, err := rates.UpdateSettings(ctx, TariffPatch{GrossRatePerKWh: dp("1.30")})
		require.NoError(t, err)

		assert.Equal(t, "1.30", settings.GrossRatePerKWh.Decimal.StringFixed(2))
		require.True(t, settings.VATPercent.Valid)
		assert.Equal(t, "23", settings.VATPercent.Decimal.String())
		// The net rate keeps its previously backfilled value.
		require.True(t, settings.NetRatePerKWh.Valid)
	})

	t.Run("No backfill while VAT is unknown", func(t *testing.T) {
		s := newTestStore(t)
		rates := NewRates(s, config.TariffConfig{})

		settings, err := rates.UpdateSettings(context.Background(), TariffPatch{
			GrossRatePerKWh: dp("1.23"),
		})
		require.NoError(t, err)

		assert.False(t, settings.NetRatePerKWh.Valid)
	})
}

func TestRates_RateForCategory(t *testing.T) {
	cfg := config.TariffConfig{
		DefaultRatePerKWh: 0.90,
		Categories:        map[string]float64{"dj": 1.15},
	}

	t.Run("Config category override wins", func(t *testing.T) {
		s := newTestStore(t)
		rates := NewRates(s, cfg)

		rate, err := rates.RateForCategory(context.Background(), "dj")
		require.NoError(t, err)
		assert.Equal(t, "1.15", rate.StringFixed(2))
	})

	t.Run("Stored gross rate covers unmapped categories", func(t *testing.T) {
		s := newTestStore(t)
		rates := NewRates(s, cfg)
		ctx := context.Background()

		_, err := rates.UpdateSettings(ctx, TariffPatch{GrossRatePerKWh: dp("1.42")})
		require.NoError(t, err)

		rate, err := rates.RateForCategory(ctx, "cz")
		require.NoError(t, err)
		assert.Equal(t, "1.42", rate.StringFixed(2))
	})

	t.Run("Configured default is the last resort", func(t *testing.T) {
		s := newTestStore(t)
		rates := NewRates(s, cfg)

		rate, err := rates.RateForCategory(context.Background(), "cz")
		require.NoError(t, err)
		assert.Equal(t, "0.90", rate.StringFixed(2))
	})

	t.Run("Settings row is created on first read", func(t *testing.T) {
		s := newTestStore(t)
		rates := NewRates(s, cfg)

		settings, err := rates.Current(context.Background())
		require.NoError(t, err)
		assert.False(t, settings.GrossRatePerKWh.Valid)

		again, err := rates.Current(context.Background())
		require.NoError(t, err)
		assert.Equal(t, settings.ID, again.ID)
	})
}
