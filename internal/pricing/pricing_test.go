package pricing

import (
	"testing"

	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/db/models"
	"github.com/dukastore/backend/pkg/enums"
	"github.com/shopspring/decimal"
)

func testAggregator() *Aggregator {
	return NewAggregator(config.ShippingConfig{
		FreeThreshold:  5000,
		StandardFee:    500,
		ExpressFlatFee: 1000,
	})
}

func line(price int64, qty int) models.CartLine {
	return models.CartLine{UnitPrice: decimal.NewFromInt(price), Quantity: qty}
}

func TestShippingThresholdBoundary(t *testing.T) {
	t.Parallel()

	agg := testAggregator()

	below := agg.ComputeTotals([]models.CartLine{line(4999, 1)}, enums.ShippingMethodStandard)
	if !below.Shipping.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("subtotal 4999 must pay 500 shipping, got %s", below.Shipping)
	}
	if !below.Total.Equal(decimal.NewFromInt(5499)) {
		t.Fatalf("unexpected total %s", below.Total)
	}

	at := agg.ComputeTotals([]models.CartLine{line(5000, 1)}, enums.ShippingMethodStandard)
	if !at.Shipping.IsZero() {
		t.Fatalf("subtotal 5000 must ship free, got %s", at.Shipping)
	}
	if !at.Total.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected total %s", at.Total)
	}
}

func TestExpressOverridesThreshold(t *testing.T) {
	t.Parallel()

	agg := testAggregator()

	// Express charges the flat fee even above the free threshold.
	totals := agg.ComputeTotals([]models.CartLine{line(9000, 1)}, enums.ShippingMethodExpress)
	if !totals.Shipping.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("express must charge flat fee, got %s", totals.Shipping)
	}
	if !totals.Total.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("unexpected total %s", totals.Total)
	}
}

func TestSubtotalSumsLines(t *testing.T) {
	t.Parallel()

	agg := testAggregator()

	totals := agg.ComputeTotals([]models.CartLine{
		line(1200, 2),
		line(450, 3),
	}, enums.ShippingMethodStandard)

	if !totals.Subtotal.Equal(decimal.NewFromInt(3750)) {
		t.Fatalf("expected subtotal 3750, got %s", totals.Subtotal)
	}
	if !totals.Shipping.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected shipping 500, got %s", totals.Shipping)
	}
}

func TestEmptyCartTotals(t *testing.T) {
	t.Parallel()

	agg := testAggregator()

	totals := agg.ComputeTotals(nil, enums.ShippingMethodStandard)
	if !totals.Subtotal.IsZero() {
		t.Fatalf("expected zero subtotal, got %s", totals.Subtotal)
	}
	if !totals.Shipping.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("empty cart below threshold still prices shipping, got %s", totals.Shipping)
	}
}
