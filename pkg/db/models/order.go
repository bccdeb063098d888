package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukastore/backend/pkg/enums"
)

// Order is the durable record of a checkout attempt that reached the
// transactional stage. Amount is the subtotal snapshot at order time and
// never changes afterwards; the shipping-inclusive total is only
// communicated to the client, not stored here.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID      uint64            `gorm:"column:customer_id;not null;index"`
	Amount          decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	ShippingAddress string            `gorm:"column:shipping_address;not null"`
	OrderAddress    string            `gorm:"column:order_address;not null"`
	OrderEmail      string            `gorm:"column:order_email;not null"`
	OrderDate       time.Time         `gorm:"column:order_date;not null"`
	OrderStatus     enums.OrderStatus `gorm:"column:order_status;not null;default:'pending'"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderDetail is one immutable line item captured from the cart at
// checkout. Never updated after creation.
type OrderDetail struct {
	ID         uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID uint64          `gorm:"column:customer_id;not null"`
	ProductID  uint64          `gorm:"column:product_id;not null"`
	SKU        string          `gorm:"column:sku;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
