package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TariffSettingsID is the fixed primary key of the singleton settings row.
const TariffSettingsID int64 = 1

// TariffSettings is the single current price record. Fields stay NULL until
// the user provides them; the net rate may be backfilled from gross + VAT.
type TariffSettings struct {
	ID              int64               `gorm:"primaryKey" json:"-"`
	NetRatePerKWh   decimal.NullDecimal `gorm:"type:decimal(10,4)" json:"netRatePerKwh"`
	GrossRatePerKWh decimal.NullDecimal `gorm:"type:decimal(10,4)" json:"grossRatePerKwh"`
	VATPercent      decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"vatPercent"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}
