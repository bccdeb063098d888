package controllers

import (
	"net/http"

	"github.com/dukastore/backend/api/middleware"
	"github.com/dukastore/backend/api/responses"
	"github.com/dukastore/backend/api/validators"
	checkoutsvc "github.com/dukastore/backend/internal/checkout"
	"github.com/dukastore/backend/pkg/enums"
	pkgerrors "github.com/dukastore/backend/pkg/errors"
	"github.com/dukastore/backend/pkg/logger"
)

// Checkout runs the full checkout transaction for the caller's cart and
// returns the created order with its final pricing.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())
		if owner.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), owner, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(result))
	}
}

type checkoutRequest struct {
	Email           string `json:"email" validate:"required,email"`
	FullName        string `json:"full_name" validate:"required"`
	Phone           string `json:"phone"`
	BillingAddress  string `json:"billing_address"`
	ShippingAddress string `json:"shipping_address" validate:"required"`
	Country         string `json:"country"`
	ShippingMethod  string `json:"shipping_method" validate:"required,oneof=standard express"`
	PaymentMethod   string `json:"payment_method" validate:"required,oneof=card mpesa paypal"`
	PaymentToken    string `json:"payment_token"`
}

func (r checkoutRequest) toInput() (checkoutsvc.CheckoutInput, error) {
	shipping, err := enums.ParseShippingMethod(r.ShippingMethod)
	if err != nil {
		return checkoutsvc.CheckoutInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method")
	}
	method, err := enums.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return checkoutsvc.CheckoutInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	return checkoutsvc.CheckoutInput{
		Email:           validators.SanitizeString(r.Email, 254),
		FullName:        validators.SanitizeString(r.FullName, 120),
		Phone:           validators.SanitizeString(r.Phone, 32),
		BillingAddress:  validators.SanitizeString(r.BillingAddress, 500),
		ShippingAddress: validators.SanitizeString(r.ShippingAddress, 500),
		Country:         validators.SanitizeString(r.Country, 80),
		ShippingMethod:  shipping,
		PaymentMethod:   method,
		PaymentToken:    r.PaymentToken,
	}, nil
}

type checkoutReceipt struct {
	Provider  string `json:"provider"`
	Reference string `json:"reference"`
}

type checkoutResponse struct {
	OrderID  string           `json:"order_id"`
	Status   string           `json:"status"`
	Subtotal string           `json:"subtotal"`
	Shipping string           `json:"shipping"`
	Total    string           `json:"total"`
	Receipt  *checkoutReceipt `json:"receipt,omitempty"`
}

func newCheckoutResponse(result *checkoutsvc.Result) checkoutResponse {
	out := checkoutResponse{
		OrderID:  result.OrderID.String(),
		Status:   string(result.Status),
		Subtotal: result.Subtotal.StringFixed(2),
		Shipping: result.Shipping.StringFixed(2),
		Total:    result.Total.StringFixed(2),
	}
	if result.Receipt != nil {
		out.Receipt = &checkoutReceipt{
			Provider:  result.Receipt.Provider,
			Reference: result.Receipt.Reference,
		}
	}
	return out
}
