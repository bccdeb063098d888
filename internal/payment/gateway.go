package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukastore/backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var decimalHundred = decimal.NewFromInt(100)

// ErrorKind classifies why a charge failed, uniformly across providers.
type ErrorKind string

const (
	ErrKindDeclined    ErrorKind = "declined"
	ErrKindTimeout     ErrorKind = "timeout"
	ErrKindUnavailable ErrorKind = "unavailable"
)

// GatewayError is the uniform failure every gateway translates its
// provider-specific errors into.
type GatewayError struct {
	Provider string
	Kind     ErrorKind
	cause    error
}

func (e *GatewayError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s gateway %s: %v", e.Provider, e.Kind, e.cause)
	}
	return fmt.Sprintf("%s gateway %s", e.Provider, e.Kind)
}

func (e *GatewayError) Unwrap() error {
	return e.cause
}

// Declined marks a charge the provider explicitly refused.
func Declined(provider string, cause error) *GatewayError {
	return &GatewayError{Provider: provider, Kind: ErrKindDeclined, cause: cause}
}

// Timeout marks a charge that exceeded the orchestrator's deadline.
func Timeout(provider string, cause error) *GatewayError {
	return &GatewayError{Provider: provider, Kind: ErrKindTimeout, cause: cause}
}

// Unavailable marks a provider that could not be reached at all.
func Unavailable(provider string, cause error) *GatewayError {
	return &GatewayError{Provider: provider, Kind: ErrKindUnavailable, cause: cause}
}

// KindOf extracts the error kind when err is a gateway error.
func KindOf(err error) (ErrorKind, bool) {
	var gw *GatewayError
	if errors.As(err, &gw) {
		return gw.Kind, true
	}
	return "", false
}

// classify maps context expiry onto the timeout kind before falling back
// to unavailable; gateways call it for transport-level failures.
func classify(provider string, err error) *GatewayError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Timeout(provider, err)
	}
	return Unavailable(provider, err)
}

// ChargeRequest carries everything a gateway needs for one authorization
// attempt. SourceToken is the client-side token (card nonce or wallet
// approval id); CustomerPhone is the MSISDN for mobile money.
type ChargeRequest struct {
	OrderRef      uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	SourceToken   string
}

// Receipt reports a successful authorization.
type Receipt struct {
	Provider  string
	Reference string
}

// Gateway authorizes a single charge against one external channel. It
// must not touch order, customer, or cart state; the orchestrator owns
// all persistence.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, req ChargeRequest) (*Receipt, error)
}

// Registry resolves the gateway for a payment method.
type Registry struct {
	gateways map[enums.PaymentMethod]Gateway
}

// NewRegistry builds a registry over the provided gateways.
func NewRegistry(gateways map[enums.PaymentMethod]Gateway) *Registry {
	return &Registry{gateways: gateways}
}

// For returns the gateway registered for the method.
func (r *Registry) For(method enums.PaymentMethod) (Gateway, error) {
	if r == nil {
		return nil, fmt.Errorf("payment registry not configured")
	}
	gw, ok := r.gateways[method]
	if !ok || gw == nil {
		return nil, fmt.Errorf("no gateway registered for payment method %q", method)
	}
	return gw, nil
}
