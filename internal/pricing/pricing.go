package pricing

import (
	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/db/models"
	"github.com/dukastore/backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Totals is the priced view of a cart snapshot.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Aggregator computes cart totals under the configured shipping rule.
// Pure; carries no I/O.
type Aggregator struct {
	freeThreshold  decimal.Decimal
	standardFee    decimal.Decimal
	expressFlatFee decimal.Decimal
}

// NewAggregator builds an aggregator from the shipping configuration.
func NewAggregator(cfg config.ShippingConfig) *Aggregator {
	return &Aggregator{
		freeThreshold:  decimal.NewFromInt(cfg.FreeThreshold),
		standardFee:    decimal.NewFromInt(cfg.StandardFee),
		expressFlatFee: decimal.NewFromInt(cfg.ExpressFlatFee),
	}
}

// ComputeTotals sums the lines and applies the shipping rule: standard
// shipping is free at or above the threshold, express is always the flat
// fee regardless of subtotal.
func (a *Aggregator) ComputeTotals(lines []models.CartLine, method enums.ShippingMethod) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}

	shipping := a.shippingFee(subtotal, method)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

func (a *Aggregator) shippingFee(subtotal decimal.Decimal, method enums.ShippingMethod) decimal.Decimal {
	if method == enums.ShippingMethodExpress {
		return a.expressFlatFee
	}
	if subtotal.GreaterThanOrEqual(a.freeThreshold) {
		return decimal.Zero
	}
	return a.standardFee
}
