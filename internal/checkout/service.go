package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dukastore/backend/internal/cart"
	"github.com/dukastore/backend/internal/catalog"
	"github.com/dukastore/backend/internal/customers"
	"github.com/dukastore/backend/internal/identity"
	"github.com/dukastore/backend/internal/notifications"
	"github.com/dukastore/backend/internal/orders"
	"github.com/dukastore/backend/internal/payment"
	"github.com/dukastore/backend/internal/pricing"
	"github.com/dukastore/backend/pkg/db/models"
	"github.com/dukastore/backend/pkg/enums"
	pkgerrors "github.com/dukastore/backend/pkg/errors"
	"github.com/dukastore/backend/pkg/logger"
	"github.com/dukastore/backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type totalsComputer interface {
	ComputeTotals(lines []models.CartLine, method enums.ShippingMethod) pricing.Totals
}

type gatewayResolver interface {
	For(method enums.PaymentMethod) (payment.Gateway, error)
}

// Service runs the checkout pipeline for a cart owner: validation, stock
// checks, the order transaction, payment dispatch, and notification.
type Service interface {
	Execute(ctx context.Context, owner identity.Owner, input CheckoutInput) (*Result, error)
}

// CheckoutInput carries the shipping form and payment selection.
type CheckoutInput struct {
	Email           string
	FullName        string
	Phone           string
	BillingAddress  string
	ShippingAddress string
	Country         string
	ShippingMethod  enums.ShippingMethod
	PaymentMethod   enums.PaymentMethod
	PaymentToken    string
}

// Result describes a committed checkout.
type Result struct {
	OrderID  uuid.UUID
	Status   enums.OrderStatus
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
	Receipt  *payment.Receipt
}

type service struct {
	tx            txRunner
	cartRepo      cart.Repository
	catalogRepo   catalog.Repository
	customersRepo customers.Repository
	ordersRepo    orders.Repository
	pricing       totalsComputer
	gateways      gatewayResolver
	notifier      notifications.Notifier
	metrics       *metrics.CheckoutMetrics
	chargeTimeout time.Duration
	currency      string
	logger        *logger.Logger
}

// NewService builds the checkout service. The notifier and metrics are
// optional; everything else is required.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	catalogRepo catalog.Repository,
	customersRepo customers.Repository,
	ordersRepo orders.Repository,
	totals totalsComputer,
	gateways gatewayResolver,
	notifier notifications.Notifier,
	checkoutMetrics *metrics.CheckoutMetrics,
	chargeTimeout time.Duration,
	currency string,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if customersRepo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if totals == nil {
		return nil, fmt.Errorf("pricing aggregator required")
	}
	if gateways == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if chargeTimeout <= 0 {
		chargeTimeout = 30 * time.Second
	}
	return &service{
		tx:            tx,
		cartRepo:      cartRepo,
		catalogRepo:   catalogRepo,
		customersRepo: customersRepo,
		ordersRepo:    ordersRepo,
		pricing:       totals,
		gateways:      gateways,
		notifier:      notifier,
		metrics:       checkoutMetrics,
		chargeTimeout: chargeTimeout,
		currency:      currency,
		logger:        logg,
	}, nil
}

func (s *service) Execute(ctx context.Context, owner identity.Owner, input CheckoutInput) (*Result, error) {
	lines, err := s.validate(ctx, owner, input)
	if err != nil {
		s.metrics.IncAttempt("rejected")
		return nil, err
	}

	if err := s.precheckStock(ctx, lines); err != nil {
		s.metrics.IncAttempt("rejected")
		return nil, err
	}

	totals := s.pricing.ComputeTotals(lines, input.ShippingMethod)

	gateway, err := s.gateways.For(input.PaymentMethod)
	if err != nil {
		s.metrics.IncAttempt("rejected")
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported payment method")
	}

	// The customer and order rows are written before the rollback-able
	// transaction opens so a payment failure can still be marked on a
	// durable order record.
	customer, err := s.customersRepo.UpsertByEmail(ctx, &models.Customer{
		Email:           input.Email,
		FullName:        input.FullName,
		Phone:           input.Phone,
		BillingAddress:  input.BillingAddress,
		ShippingAddress: input.ShippingAddress,
		Country:         input.Country,
	})
	if err != nil {
		s.metrics.IncAttempt("failed")
		return nil, err
	}

	order := &models.Order{
		ID:              uuid.New(),
		CustomerID:      customer.ID,
		Amount:          totals.Subtotal,
		ShippingAddress: input.ShippingAddress,
		OrderAddress:    input.BillingAddress,
		OrderEmail:      input.Email,
		OrderDate:       time.Now().UTC(),
		OrderStatus:     enums.OrderStatusPending,
	}
	if err := s.ordersRepo.Create(ctx, order); err != nil {
		s.metrics.IncAttempt("failed")
		return nil, err
	}

	logCtx := s.logger.WithOrderID(ctx, order.ID.String())

	var receipt *payment.Receipt
	txErr := s.tx.WithTx(logCtx, func(tx *gorm.DB) error {
		catalogRepo := s.catalogRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		details := make([]models.OrderDetail, 0, len(lines))
		for _, line := range lines {
			product, err := catalogRepo.FindByID(logCtx, line.ProductID)
			if err != nil {
				return err
			}
			if err := catalogRepo.DecrementStock(logCtx, line.ProductID, line.Quantity); err != nil {
				return err
			}
			details = append(details, models.OrderDetail{
				OrderID:    order.ID,
				CustomerID: customer.ID,
				ProductID:  line.ProductID,
				SKU:        product.SKU,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
			})
		}
		if err := ordersRepo.CreateDetails(logCtx, details); err != nil {
			return err
		}

		receipt, err = s.dispatchPayment(logCtx, gateway, order, customer, input, totals)
		return err
	})
	if txErr != nil {
		return nil, s.settleFailure(logCtx, order.ID, txErr)
	}

	if err := s.ordersRepo.UpdateStatus(logCtx, order.ID, enums.OrderStatusProcessing); err != nil {
		s.logger.Error(logCtx, "marking order processing after commit", err)
	}
	if err := s.cartRepo.DeleteByOwner(logCtx, owner); err != nil {
		s.logger.Error(logCtx, "clearing cart after commit", err)
	}

	s.metrics.IncAttempt("committed")
	s.notify(logCtx, order, customer, totals)

	return &Result{
		OrderID:  order.ID,
		Status:   enums.OrderStatusProcessing,
		Subtotal: totals.Subtotal,
		Shipping: totals.Shipping,
		Total:    totals.Total,
		Receipt:  receipt,
	}, nil
}

// validate covers the pre-flight phase: the owner must resolve, the form
// must be coherent, and the cart must hold at least one line.
func (s *service) validate(ctx context.Context, owner identity.Owner, input CheckoutInput) ([]models.CartLine, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	if input.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if input.ShippingAddress == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address required")
	}
	if !input.ShippingMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping method")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	lines, err := s.cartRepo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart contains no items")
	}
	return lines, nil
}

// precheckStock is advisory: it rejects obviously oversold carts before
// any rows are written. The authoritative guard is the conditional
// decrement inside the transaction.
func (s *service) precheckStock(ctx context.Context, lines []models.CartLine) error {
	for _, line := range lines {
		product, err := s.catalogRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		if product.Stock < line.Quantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", product.Title)).
				WithDetails(map[string]any{
					"product_id": line.ProductID,
					"available":  product.Stock,
					"requested":  line.Quantity,
				})
		}
	}
	return nil
}

func (s *service) dispatchPayment(
	ctx context.Context,
	gateway payment.Gateway,
	order *models.Order,
	customer *models.Customer,
	input CheckoutInput,
	totals pricing.Totals,
) (*payment.Receipt, error) {
	chargeCtx, cancel := context.WithTimeout(ctx, s.chargeTimeout)
	defer cancel()

	started := time.Now()
	receipt, err := gateway.Charge(chargeCtx, payment.ChargeRequest{
		OrderRef:      order.ID,
		Amount:        totals.Total,
		Currency:      s.currency,
		CustomerName:  customer.FullName,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone,
		SourceToken:   input.PaymentToken,
	})
	s.metrics.ObserveGateway(gateway.Name(), time.Since(started))
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// settleFailure translates a transaction error into the caller-facing
// error and, for payment failures, marks the surviving order row after
// the rollback has already released stock.
func (s *service) settleFailure(ctx context.Context, orderID uuid.UUID, txErr error) error {
	if kind, ok := payment.KindOf(txErr); ok {
		if err := s.ordersRepo.UpdateStatus(ctx, orderID, enums.OrderStatusPaymentFailed); err != nil {
			s.logger.Error(ctx, "marking order payment_failed", err)
		}
		s.metrics.IncAttempt("rolled_back")
		return pkgerrors.Wrap(pkgerrors.CodePaymentFailed, txErr, "payment was not accepted").
			WithDetails(map[string]any{"reason": string(kind)})
	}

	if err := s.ordersRepo.UpdateStatus(ctx, orderID, enums.OrderStatusCancelled); err != nil {
		s.logger.Error(ctx, "marking order cancelled", err)
	}
	if pkgerrors.IsCode(txErr, pkgerrors.CodeInsufficientStock) {
		s.metrics.IncAttempt("rejected")
		return txErr
	}
	s.metrics.IncAttempt("failed")
	return txErr
}

func (s *service) notify(ctx context.Context, order *models.Order, customer *models.Customer, totals pricing.Totals) {
	if s.notifier == nil {
		return
	}
	event := notifications.OrderEvent{
		OrderID:       order.ID,
		CustomerEmail: customer.Email,
		CustomerName:  customer.FullName,
		Status:        enums.OrderStatusProcessing,
		Total:         totals.Total,
		Currency:      s.currency,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.notifier.NotifyOrderConfirmed(ctx, event); err != nil {
		s.logger.Warn(ctx, "order confirmation delivery failed: "+err.Error())
	}
}
