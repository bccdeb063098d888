package notifications

import (
	"context"
	"time"

	"github.com/dukastore/backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderEvent describes an order outcome worth telling the customer about.
type OrderEvent struct {
	OrderID       uuid.UUID
	CustomerEmail string
	CustomerName  string
	Status        enums.OrderStatus
	Total         decimal.Decimal
	Currency      string
	OccurredAt    time.Time
}

// Notifier delivers order confirmations. Delivery is best effort: callers
// treat a returned error as a logging concern, never as a checkout failure.
type Notifier interface {
	NotifyOrderConfirmed(ctx context.Context, event OrderEvent) error
}
