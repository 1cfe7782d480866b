package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"home-energy-backend/internal/model"
)

func (s *gormStore) ListAdditionalDevices(ctx context.Context) ([]model.AdditionalDevice, error) {
	var devices []model.AdditionalDevice
	if err := s.db.WithContext(ctx).Order("id").Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list additional devices: %w", err)
	}
	return devices, nil
}

func (s *gormStore) GetAdditionalDevice(ctx context.Context, id int64) (*model.AdditionalDevice, error) {
	var device model.AdditionalDevice
	err := s.db.WithContext(ctx).First(&device, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get additional device %d: %w", id, err)
	}
	return &device, nil
}

func (s *gormStore) SaveAdditionalDevice(ctx context.Context, d *model.AdditionalDevice) error {
	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("failed to save additional device: %w", err)
	}
	return nil
}

func (s *gormStore) DeleteAdditionalDevice(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.AdditionalDevice{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete additional device %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
