package model

import "time"

// LightingUsage is one completed ON period of a session-tracked device.
// Created only on an ON->OFF transition; never mutated afterwards.
type LightingUsage struct {
	ID              int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	DeviceID        int64     `gorm:"not null;index:idx_lighting_device_start" json:"deviceId"`
	StartTime       time.Time `gorm:"not null;index:idx_lighting_device_start" json:"startTime"`
	EndTime         time.Time `gorm:"not null" json:"endTime"`
	DurationSeconds int64     `gorm:"not null" json:"durationSeconds"` // EndTime - StartTime

	// Associations
	Device Device `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
