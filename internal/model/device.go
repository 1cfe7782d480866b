package model

import "time"

// Device is the persisted snapshot of a polled smart device.
// LastSwitchOn/LastSwitchOnSince carry the lighting session state between
// polling cycles; they are mutated only through the session transition.
type Device struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	ExternalID string `gorm:"uniqueIndex;size:64;not null" json:"externalId"` // Upstream device id
	Name       string `gorm:"size:256" json:"name"`
	Category   string `gorm:"size:32;index" json:"category"` // e.g. "cz" (socket), "dj" (lighting)
	Model      string `gorm:"size:128" json:"model"`
	IP         string `gorm:"size:64" json:"ip"`
	Online     bool   `json:"online"`

	// User-supplied metadata for devices without a cumulative energy counter.
	RatedPowerW     *float64 `json:"ratedPowerW"`
	BulbDescription string   `gorm:"size:256" json:"bulbDescription"`

	// Last normalized readings, refreshed on every ingestion.
	LastPowerW    *float64 `json:"lastPowerW"`
	LastVoltageV  *float64 `json:"lastVoltageV"`
	LastCurrentMA *int     `json:"lastCurrentMa"`
	LastEnergyKWh *float64 `gorm:"column:last_energy_kwh" json:"lastEnergyKwh"`

	// Session tracking state.
	LastSwitchOn      bool       `json:"lastSwitchOn"`
	LastSwitchOnSince *time.Time `json:"lastSwitchOnSince"`

	LastSeenAt *time.Time `json:"lastSeenAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
