package model

import "time"

// AdditionalDevice is a device that is never polled; it exists only for
// what-if cost estimation from its rated power.
type AdditionalDevice struct {
	ID          int64     `gorm:"autoIncrement;primaryKey" json:"id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	Category    string    `gorm:"size:32" json:"category"`
	RatedPowerW *float64  `json:"ratedPowerW"`
	Description string    `gorm:"size:512" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
