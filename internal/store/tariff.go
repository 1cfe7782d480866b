package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"home-energy-backend/internal/model"
)

// GetOrInitTariffSettings returns the singleton settings row, materializing
// an empty zero-rate record on first access instead of relying on the row
// always existing.
func (s *gormStore) GetOrInitTariffSettings(ctx context.Context) (model.TariffSettings, error) {
	var settings model.TariffSettings
	err := s.db.WithContext(ctx).First(&settings, model.TariffSettingsID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = model.TariffSettings{ID: model.TariffSettingsID}
		if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
			return model.TariffSettings{}, fmt.Errorf("failed to initialize tariff settings: %w", err)
		}
		return settings, nil
	}
	if err != nil {
		return model.TariffSettings{}, fmt.Errorf("failed to load tariff settings: %w", err)
	}
	return settings, nil
}

func (s *gormStore) SaveTariffSettings(ctx context.Context, settings *model.TariffSettings) error {
	settings.ID = model.TariffSettingsID
	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save tariff settings: %w", err)
	}
	return nil
}
