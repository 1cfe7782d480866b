package poller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"home-energy-backend/config"
	"home-energy-backend/internal/billing"
	"home-energy-backend/internal/model"
	"home-energy-backend/internal/session"
	"home-energy-backend/internal/store"
	"home-energy-backend/internal/telemetry"
)

// mockStore is a mock implementation of the store.Store interface.
type mockStore struct {
	devices      map[string]*model.Device
	nextID       int64
	measurements []*model.EnergyMeasurement
	observations []session.Observation
	closedUsage  *model.LightingUsage
}

func newMockStore() *mockStore {
	return &mockStore{devices: make(map[string]*model.Device), nextID: 1}
}

func (m *mockStore) DB() *gorm.DB { return nil }

func (m *mockStore) FindDeviceByExternalID(ctx context.Context, externalID string) (*model.Device, error) {
	if d, ok := m.devices[externalID]; ok {
		return d, nil
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) GetDevice(ctx context.Context, id int64) (*model.Device, error) {
	for _, d := range m.devices {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockStore) ListDevices(ctx context.Context, category string) ([]model.Device, error) {
	return nil, nil
}

func (m *mockStore) SaveDevice(ctx context.Context, device *model.Device) error {
	if device.ID == 0 {
		device.ID = m.nextID
		m.nextID++
	}
	m.devices[device.ExternalID] = device
	return nil
}

func (m *mockStore) ApplySwitchObservation(ctx context.Context, deviceID int64, obs session.Observation) (*model.LightingUsage, error) {
	m.observations = append(m.observations, obs)
	return m.closedUsage, nil
}

func (m *mockStore) InsertMeasurement(ctx context.Context, meas *model.EnergyMeasurement) error {
	m.measurements = append(m.measurements, meas)
	return nil
}

func (m *mockStore) ListEnergyReadings(ctx context.Context, deviceID int64, from, to time.Time) ([]float64, error) {
	return nil, nil
}

func (m *mockStore) AveragePowerSince(ctx context.Context, deviceID int64, since time.Time) (*float64, error) {
	return nil, nil
}

func (m *mockStore) InsertLightingUsage(ctx context.Context, u *model.LightingUsage) error { return nil }

func (m *mockStore) ListLightingUsage(ctx context.Context, deviceID int64, from, to time.Time) ([]model.LightingUsage, error) {
	return nil, nil
}

func (m *mockStore) GetOrInitTariffSettings(ctx context.Context) (model.TariffSettings, error) {
	return model.TariffSettings{ID: model.TariffSettingsID}, nil
}

func (m *mockStore) SaveTariffSettings(ctx context.Context, settings *model.TariffSettings) error {
	return nil
}

func (m *mockStore) ListAdditionalDevices(ctx context.Context) ([]model.AdditionalDevice, error) {
	return nil, nil
}

func (m *mockStore) GetAdditionalDevice(ctx context.Context, id int64) (*model.AdditionalDevice, error) {
	return nil, store.ErrNotFound
}

func (m *mockStore) SaveAdditionalDevice(ctx context.Context, d *model.AdditionalDevice) error {
	return nil
}

func (m *mockStore) DeleteAdditionalDevice(ctx context.Context, id int64) error { return nil }

func testConfig(url string) *config.Config {
	return &config.Config{
		Poller: config.PollerConfig{
			Request: config.PollerRequest{
				URL:      url,
				PageSize: 10,
			},
			MeteredCategories: []string{"cz"},
			PowerDivisor:      10,
		},
		Tariff: config.TariffConfig{
			DefaultRatePerKWh: 1.0,
			Categories:        map[string]float64{"dj": 1.0},
		},
		Push: config.PushConfig{
			PublicKey:  "test-public-key",
			PrivateKey: "test-private-key",
		},
		WorkerPool: config.WorkerPoolConfig{Size: 1},
	}
}

func TestSyncOnce(t *testing.T) {
	// Mock upstream telemetry API.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp ApiResponse
		resp.Code = 0
		resp.Data.Total = 2
		resp.Data.Items = []ApiDevice{
			{
				ID: "sock-1", Name: "Washer", Category: "cz", Model: "WK35", Online: true,
				Status: []telemetry.StatusCode{
					{Code: "switch_1", Value: true},
					{Code: "add_ele", Value: float64(12345)},
					{Code: "cur_power", Value: float64(1500)},
				},
			},
			{
				ID: "bulb-1", Name: "Hall lamp", Category: "dj", Model: "LED9", Online: true,
				Status: []telemetry.StatusCode{
					{Code: "switch_led", Value: false},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	ms := newMockStore()
	// Pretend the lighting observation closed a 30 minute session.
	ms.closedUsage = &model.LightingUsage{DurationSeconds: 1800}

	cfg := testConfig(server.URL)
	rates := billing.NewRates(ms, cfg.Tariff)
	aggregator := billing.NewAggregator(ms, rates)
	service := NewService(cfg, ms, aggregator)

	service.SyncOnce(context.Background())

	// Both devices were upserted.
	require.Len(t, ms.devices, 2)
	washer := ms.devices["sock-1"]
	require.NotNil(t, washer.LastEnergyKWh)
	assert.InDelta(t, 12.345, *washer.LastEnergyKWh, 1e-9)
	require.NotNil(t, washer.LastPowerW)
	assert.InDelta(t, 150.0, *washer.LastPowerW, 1e-9)

	// Only the metered socket produced a measurement row.
	require.Len(t, ms.measurements, 1)
	assert.Equal(t, washer.ID, ms.measurements[0].DeviceID)

	// Only the non-metered lamp went through session tracking.
	require.Len(t, ms.observations, 1)
	assert.False(t, ms.observations[0].SwitchOn)
	assert.True(t, ms.observations[0].Online)

	// The closed session was handed to the notification pool.
	select {
	case job := <-service.workerPool.Jobs():
		assert.Equal(t, ms.devices["bulb-1"].ID, job.DeviceID)
		assert.Equal(t, int64(1800), job.DurationSeconds)
	default:
		t.Fatal("expected a session-closed job to be dispatched")
	}
}

func TestSyncOnce_AbortsOnTotalFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ms := newMockStore()
	cfg := testConfig(server.URL)
	rates := billing.NewRates(ms, cfg.Tariff)
	service := NewService(cfg, ms, billing.NewAggregator(ms, rates))

	service.SyncOnce(context.Background())

	assert.Empty(t, ms.devices)
	assert.Empty(t, ms.measurements)
}
