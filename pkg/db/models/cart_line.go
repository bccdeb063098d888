package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one distinct (owner, product, variant) entry in a cart.
// Exactly one of UserID / SessionToken is populated; the pair of nullable
// columns is the denormalized form of the cart owner union.
type CartLine struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       *uint64         `gorm:"column:user_id;index:idx_cart_lines_user"`
	SessionToken *string         `gorm:"column:session_token;index:idx_cart_lines_session"`
	ProductID    uint64          `gorm:"column:product_id;not null"`
	Variant      *string         `gorm:"column:variant"`
	Quantity     int             `gorm:"column:quantity;not null"`
	UnitPrice    decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// LineTotal returns unit price multiplied by quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SameConfig reports whether the line matches the given product and variant.
// A nil variant only matches another nil variant.
func (l CartLine) SameConfig(productID uint64, variant *string) bool {
	if l.ProductID != productID {
		return false
	}
	if l.Variant == nil || variant == nil {
		return l.Variant == nil && variant == nil
	}
	return *l.Variant == *variant
}
