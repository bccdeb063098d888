package models

import "time"

// Customer is keyed naturally by email; checkout upserts it from the
// shipping form, last write wins on contact details.
type Customer struct {
	ID              uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Email           string    `gorm:"column:email;not null;uniqueIndex"`
	FullName        string    `gorm:"column:full_name;not null"`
	Phone           string    `gorm:"column:phone;not null"`
	BillingAddress  string    `gorm:"column:billing_address;not null"`
	ShippingAddress string    `gorm:"column:shipping_address;not null"`
	Country         string    `gorm:"column:country;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
