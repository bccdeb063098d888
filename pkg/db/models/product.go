package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog row consulted (read-only, except stock) by the
// cart and checkout flows. Catalog CRUD itself lives elsewhere.
type Product struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	Title     string          `gorm:"column:title;not null"`
	SKU       string          `gorm:"column:sku;not null;uniqueIndex"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
