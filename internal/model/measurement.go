package model

import "time"

// EnergyMeasurement is one normalized telemetry sample for a device.
// Rows are append-only; absent readings stay NULL rather than zero.
type EnergyMeasurement struct {
	ID         int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	DeviceID   int64     `gorm:"not null;index:idx_measurement_device_time" json:"deviceId"`
	MeasuredAt time.Time `gorm:"not null;index:idx_measurement_device_time" json:"measuredAt"`

	EnergyKWh *float64 `gorm:"column:energy_kwh" json:"energyKwh"` // cumulative counter, kWh
	PowerW    *float64 `json:"powerW"`
	VoltageV  *float64 `json:"voltageV"`
	CurrentMA *int     `json:"currentMa"`

	// Associations
	Device Device `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
