package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"home-energy-backend/internal/model"
	"home-energy-backend/internal/session"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	FindDeviceByExternalID(ctx context.Context, externalID string) (*model.Device, error)
	GetDevice(ctx context.Context, id int64) (*model.Device, error)
	ListDevices(ctx context.Context, category string) ([]model.Device, error)
	SaveDevice(ctx context.Context, device *model.Device) error

	// ApplySwitchObservation runs the session transition for one device as a
	// single transactional read-modify-write and returns the completed usage
	// record, if the observation closed a session.
	ApplySwitchObservation(ctx context.Context, deviceID int64, obs session.Observation) (*model.LightingUsage, error)

	InsertMeasurement(ctx context.Context, m *model.EnergyMeasurement) error
	ListEnergyReadings(ctx context.Context, deviceID int64, from, to time.Time) ([]float64, error)
	AveragePowerSince(ctx context.Context, deviceID int64, since time.Time) (*float64, error)

	InsertLightingUsage(ctx context.Context, u *model.LightingUsage) error
	ListLightingUsage(ctx context.Context, deviceID int64, from, to time.Time) ([]model.LightingUsage, error)

	GetOrInitTariffSettings(ctx context.Context) (model.TariffSettings, error)
	SaveTariffSettings(ctx context.Context, settings *model.TariffSettings) error

	ListAdditionalDevices(ctx context.Context) ([]model.AdditionalDevice, error)
	GetAdditionalDevice(ctx context.Context, id int64) (*model.AdditionalDevice, error)
	SaveAdditionalDevice(ctx context.Context, d *model.AdditionalDevice) error
	DeleteAdditionalDevice(ctx context.Context, id int64) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) FindDeviceByExternalID(ctx context.Context, externalID string) (*model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find device %q: %w", externalID, err)
	}
	return &device, nil
}

func (s *gormStore) GetDevice(ctx context.Context, id int64) (*model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).First(&device, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device %d: %w", id, err)
	}
	return &device, nil
}

// ListDevices returns all devices, or only those of one category when
// category is non-empty.
func (s *gormStore) ListDevices(ctx context.Context, category string) ([]model.Device, error) {
	q := s.db.WithContext(ctx)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var devices []model.Device
	if err := q.Order("id").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

func (s *gormStore) SaveDevice(ctx context.Context, device *model.Device) error {
	if err := s.db.WithContext(ctx).Save(device).Error; err != nil {
		return fmt.Errorf("failed to save device %q: %w", device.ExternalID, err)
	}
	return nil
}

func (s *gormStore) ApplySwitchObservation(ctx context.Context, deviceID int64, obs session.Observation) (*model.LightingUsage, error) {
	var completed *model.LightingUsage

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var device model.Device
		if err := tx.First(&device, deviceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		prev := session.State{On: device.LastSwitchOn, Since: device.LastSwitchOnSince}
		next, done := session.Transition(prev, obs)

		if done != nil {
			usage := model.LightingUsage{
				DeviceID:        device.ID,
				StartTime:       done.Start,
				EndTime:         done.End,
				DurationSeconds: done.DurationSeconds,
			}
			if err := tx.Create(&usage).Error; err != nil {
				return fmt.Errorf("failed to insert lighting usage for device %d: %w", device.ID, err)
			}
			completed = &usage
		}

		device.LastSwitchOn = next.On
		device.LastSwitchOnSince = next.Since
		if err := tx.Save(&device).Error; err != nil {
			return fmt.Errorf("failed to persist switch state for device %d: %w", device.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (s *gormStore) InsertMeasurement(ctx context.Context, m *model.EnergyMeasurement) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to insert measurement for device %d: %w", m.DeviceID, err)
	}
	return nil
}

// ListEnergyReadings returns the cumulative counter values of a device in
// [from, to), ascending by time. Rows without a counter value are skipped.
func (s *gormStore) ListEnergyReadings(ctx context.Context, deviceID int64, from, to time.Time) ([]float64, error) {
	var readings []float64
	err := s.db.WithContext(ctx).
		Model(&model.EnergyMeasurement{}).
		Where("device_id = ? AND measured_at >= ? AND measured_at < ? AND energy_kwh IS NOT NULL", deviceID, from, to).
		Order("measured_at").
		Pluck("energy_kwh", &readings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list energy readings for device %d: %w", deviceID, err)
	}
	return readings, nil
}

// AveragePowerSince returns the mean observed instantaneous power of a device
// since the given time, or nil when no power samples exist.
func (s *gormStore) AveragePowerSince(ctx context.Context, deviceID int64, since time.Time) (*float64, error) {
	var avg *float64
	err := s.db.WithContext(ctx).
		Model(&model.EnergyMeasurement{}).
		Where("device_id = ? AND measured_at >= ? AND power_w IS NOT NULL", deviceID, since).
		Select("AVG(power_w)").
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to average power for device %d: %w", deviceID, err)
	}
	return avg, nil
}

func (s *gormStore) InsertLightingUsage(ctx context.Context, u *model.LightingUsage) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("failed to insert lighting usage for device %d: %w", u.DeviceID, err)
	}
	return nil
}

func (s *gormStore) ListLightingUsage(ctx context.Context, deviceID int64, from, to time.Time) ([]model.LightingUsage, error) {
	var usages []model.LightingUsage
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND start_time >= ? AND start_time < ?", deviceID, from, to).
		Order("start_time").
		Find(&usages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lighting usage for device %d: %w", deviceID, err)
	}
	return usages, nil
}
