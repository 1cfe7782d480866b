package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-energy-backend/config"
	"home-energy-backend/internal/model"
	"home-energy-backend/internal/store"
)

func fp(v float64) *float64 { return &v }

func seedDevice(t *testing.T, s store.Store, d *model.Device) *model.Device {
	t.Helper()
	require.NoError(t, s.SaveDevice(context.Background(), d))
	return d
}

func seedReading(t *testing.T, s store.Store, deviceID int64, at time.Time, energyKWh, powerW *float64) {
	t.Helper()
	require.NoError(t, s.InsertMeasurement(context.Background(), &model.EnergyMeasurement{
		DeviceID:   deviceID,
		MeasuredAt: at,
		EnergyKWh:  energyKWh,
		PowerW:     powerW,
	}))
}

func newTestAggregator(t *testing.T) (store.Store, *Aggregator) {
	t.Helper()
	s := newTestStore(t)
	rates := NewRates(s, config.TariffConfig{DefaultRatePerKWh: 1.00})
	return s, NewAggregator(s, rates)
}

func TestCostForDevice(t *testing.T) {
	s, agg := newTestAggregator(t)
	ctx := context.Background()

	device := seedDevice(t, s, &model.Device{ExternalID: "sock-1", Category: "cz"})
	base := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	seedReading(t, s, device.ID, base, fp(10.000), nil)
	seedReading(t, s, device.ID, base.Add(30*time.Minute), fp(10.200), nil)
	seedReading(t, s, device.ID, base.Add(time.Hour), fp(10.500), nil)

	cost, err := agg.CostForDevice(ctx, device.ID, base, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "0.5", cost.EnergyKWh.String())
	assert.Equal(t, "0.50", cost.Cost.StringFixed(2))
}

func TestCostForDevice_UnknownDevice(t *testing.T) {
	_, agg := newTestAggregator(t)

	_, err := agg.CostForDevice(context.Background(), 999, time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCostForDeviceMonth_DiscardsGlitches(t *testing.T) {
	s, agg := newTestAggregator(t)
	ctx := context.Background()

	device := seedDevice(t, s, &model.Device{ExternalID: "sock-2", Category: "cz"})
	base := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	seedReading(t, s, device.ID, base, fp(100.0), nil)
	seedReading(t, s, device.ID, base.Add(time.Hour), fp(2100.0), nil) // glitch
	seedReading(t, s, device.ID, base.Add(2*time.Hour), fp(2100.4), nil)

	cost, err := agg.CostForDeviceMonth(ctx, device.ID, 2026, time.March, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "0.4", cost.EnergyKWh.String())
}

func TestCostForDeviceMonth_WindowBoundaries(t *testing.T) {
	s, agg := newTestAggregator(t)
	ctx := context.Background()

	device := seedDevice(t, s, &model.Device{ExternalID: "sock-3", Category: "cz"})
	feb := time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 1, 0, 30, 0, 0, time.UTC)
	seedReading(t, s, device.ID, feb, fp(50.0), nil)
	seedReading(t, s, device.ID, mar, fp(51.0), nil)
	seedReading(t, s, device.ID, mar.Add(time.Hour), fp(51.2), nil)

	cost, err := agg.CostForDeviceMonth(ctx, device.ID, 2026, time.March, time.UTC)
	require.NoError(t, err)
	// Only the in-month delta counts; the February reading is outside the window.
	assert.Equal(t, "0.2", cost.EnergyKWh.String())
}

func TestCostPerCategory(t *testing.T) {
	s, agg := newTestAggregator(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	sock1 := seedDevice(t, s, &model.Device{ExternalID: "sock-a", Category: "cz"})
	seedReading(t, s, sock1.ID, base, fp(1.0), nil)
	seedReading(t, s, sock1.ID, base.Add(time.Hour), fp(1.5), nil)

	sock2 := seedDevice(t, s, &model.Device{ExternalID: "sock-b", Category: "cz"})
	seedReading(t, s, sock2.ID, base, fp(4.0), nil)
	seedReading(t, s, sock2.ID, base.Add(time.Hour), fp(4.25), nil)

	// Uncategorized devices do not show up in the category breakdown.
	seedDevice(t, s, &model.Device{ExternalID: "mystery"})

	perCategory, err := agg.CostPerCategory(ctx, 2026, time.March, time.UTC)
	require.NoError(t, err)

	require.Len(t, perCategory, 1)
	assert.Equal(t, "0.75", perCategory["cz"].StringFixed(2))
	_, hasLighting := perCategory["dj"]
	assert.False(t, hasLighting)
}

func TestEstimateOverHours(t *testing.T) {
	t.Run("Rated power wins", func(t *testing.T) {
		s, agg := newTestAggregator(t)
		device := seedDevice(t, s, &model.Device{ExternalID: "heater", Category: "cz", RatedPowerW: fp(2000)})

		est, err := agg.EstimateOverHours(context.Background(), device.ID, 5)
		require.NoError(t, err)
		assert.Equal(t, 2000.0, est.AssumedPowerW)
		assert.Equal(t, "10", est.EnergyKWh.String())
		assert.Equal(t, "10.00", est.Cost.Cost.StringFixed(2))
	})

	t.Run("Falls back to trailing average power", func(t *testing.T) {
		s, agg := newTestAggregator(t)
		device := seedDevice(t, s, &model.Device{ExternalID: "tv", Category: "cz"})
		now := time.Now()
		seedReading(t, s, device.ID, now.Add(-2*time.Hour), nil, fp(100))
		seedReading(t, s, device.ID, now.Add(-time.Hour), nil, fp(300))

		est, err := agg.EstimateOverHours(context.Background(), device.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, 200.0, est.AssumedPowerW)
		assert.Equal(t, "2", est.EnergyKWh.String())
	})

	t.Run("No power data at all", func(t *testing.T) {
		s, agg := newTestAggregator(t)
		device := seedDevice(t, s, &model.Device{ExternalID: "ghost", Category: "cz"})

		_, err := agg.EstimateOverHours(context.Background(), device.ID, 5)
		assert.ErrorIs(t, err, ErrNoPowerData)
	})

	t.Run("Non-positive hours are rejected", func(t *testing.T) {
		_, agg := newTestAggregator(t)

		_, err := agg.EstimateOverHours(context.Background(), 1, 0)
		assert.ErrorIs(t, err, ErrInvalidEstimate)
	})
}

func TestLightingCostForDevice(t *testing.T) {
	s, agg := newTestAggregator(t)
	ctx := context.Background()

	bulb := seedDevice(t, s, &model.Device{ExternalID: "bulb-1", Category: "dj", RatedPowerW: fp(100)})
	start := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertLightingUsage(ctx, &model.LightingUsage{
		DeviceID:        bulb.ID,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		DurationSeconds: 3600,
	}))

	cost, err := agg.LightingCostForDevice(ctx, bulb.ID, 2026, time.March, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "0.1", cost.EnergyKWh.String())
	assert.Equal(t, "0.10", cost.Cost.StringFixed(2))
}

func TestLightingEnergyForDevice_NoRatedPower(t *testing.T) {
	s, agg := newTestAggregator(t)
	ctx := context.Background()

	bulb := seedDevice(t, s, &model.Device{ExternalID: "bulb-2", Category: "dj"})
	start := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertLightingUsage(ctx, &model.LightingUsage{
		DeviceID:        bulb.ID,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		DurationSeconds: 3600,
	}))

	energy, err := agg.LightingEnergyForDevice(ctx, bulb.ID, 2026, time.March, time.UTC)
	require.NoError(t, err)
	assert.True(t, energy.IsZero())
}

func TestEstimateAdditionalDevice(t *testing.T) {
	s, agg := newTestAggregator(t)
	ctx := context.Background()

	kettle := &model.AdditionalDevice{Name: "Kettle", Category: "cz", RatedPowerW: fp(1500)}
	require.NoError(t, s.SaveAdditionalDevice(ctx, kettle))

	t.Run("Explicit hours", func(t *testing.T) {
		hours := 2.0
		est, err := agg.EstimateAdditionalDevice(ctx, kettle.ID, &hours, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "HOURS", est.Mode)
		assert.Equal(t, "3", est.EnergyKWh.String())
	})

	t.Run("Days times average hours per day", func(t *testing.T) {
		days := 30
		avg := 0.5
		est, err := agg.EstimateAdditionalDevice(ctx, kettle.ID, nil, &days, &avg)
		require.NoError(t, err)
		assert.Equal(t, "DAYS_AVG_PER_DAY", est.Mode)
		assert.Equal(t, 15.0, est.Hours)
		assert.Equal(t, "22.5", est.EnergyKWh.String())
	})

	t.Run("Missing parameters", func(t *testing.T) {
		days := 30
		_, err := agg.EstimateAdditionalDevice(ctx, kettle.ID, nil, &days, nil)
		assert.ErrorIs(t, err, ErrInvalidEstimate)
	})

	t.Run("No rated power", func(t *testing.T) {
		fan := &model.AdditionalDevice{Name: "Fan"}
		require.NoError(t, s.SaveAdditionalDevice(ctx, fan))

		hours := 1.0
		_, err := agg.EstimateAdditionalDevice(ctx, fan.ID, &hours, nil, nil)
		assert.ErrorIs(t, err, ErrNoPowerData)
	})
}
