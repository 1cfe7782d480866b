package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Subscribers are notified when a tracked device finishes an ON session.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`

	// Associations
	Devices []*Device `gorm:"many2many:subscription_device_mapping;" json:"-"`
}
