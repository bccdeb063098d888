package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dukastore/backend/api/middleware"
	"github.com/dukastore/backend/api/responses"
	"github.com/dukastore/backend/api/validators"
	cartsvc "github.com/dukastore/backend/internal/cart"
	"github.com/dukastore/backend/internal/pricing"
	"github.com/dukastore/backend/pkg/db/models"
	"github.com/dukastore/backend/pkg/enums"
	pkgerrors "github.com/dukastore/backend/pkg/errors"
	"github.com/dukastore/backend/pkg/logger"
)

// CartList returns the owner's cart lines with computed totals.
func CartList(svc cartsvc.Service, agg *pricing.Aggregator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())
		if owner.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required"))
			return
		}

		method := enums.ShippingMethodStandard
		if raw := r.URL.Query().Get("shipping_method"); raw != "" {
			parsed, err := enums.ParseShippingMethod(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method"))
				return
			}
			method = parsed
		}

		lines, err := svc.List(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(lines, agg.ComputeTotals(lines, method)))
	}
}

// CartAdd creates or grows a line for the given product configuration.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())
		if owner.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required"))
			return
		}

		var payload addCartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.Add(r.Context(), owner, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCartLineResponse(*line))
	}
}

// CartUpdateLine sets the quantity of one owned line.
func CartUpdateLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())
		if owner.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required"))
			return
		}

		lineID, err := validators.ParseIDParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.UpdateQuantity(r.Context(), owner, lineID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartLineResponse(*line))
	}
}

// CartRemoveLine deletes one owned line.
func CartRemoveLine(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())
		if owner.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required"))
			return
		}

		lineID, err := validators.ParseIDParam(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Remove(r.Context(), owner, lineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
}

// CartClear removes every line the owner holds.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())
		if owner.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required"))
			return
		}

		if err := svc.Clear(r.Context(), owner); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"cleared": true})
	}
}

// CartCount returns the total item quantity, for badge rendering.
func CartCount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middleware.OwnerFromContext(r.Context())
		if owner.IsZero() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required"))
			return
		}

		count, err := svc.Count(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int{"count": count})
	}
}

// CartMerge folds the caller's guest cart into their user cart after
// sign-in. Requires authentication; the guest token comes from the body
// so clients can merge a cart built on another device.
func CartMerge(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign-in required"))
			return
		}

		var payload mergeCartRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MergeOnLogin(r.Context(), payload.SessionToken, *userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]bool{"merged": true})
	}
}

type addCartLineRequest struct {
	ProductID uint64  `json:"product_id" validate:"required"`
	Variant   *string `json:"variant"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	UnitPrice string  `json:"unit_price" validate:"required"`
}

func (r addCartLineRequest) toInput() (cartsvc.AddInput, error) {
	price, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return cartsvc.AddInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price")
	}
	if price.IsNegative() {
		return cartsvc.AddInput{}, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	return cartsvc.AddInput{
		ProductID: r.ProductID,
		Variant:   r.Variant,
		Quantity:  r.Quantity,
		UnitPrice: price,
	}, nil
}

type updateCartLineRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type mergeCartRequest struct {
	SessionToken string `json:"session_token" validate:"required"`
}

type cartLineResponse struct {
	ID        uint64  `json:"id"`
	ProductID uint64  `json:"product_id"`
	Variant   *string `json:"variant,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice string  `json:"unit_price"`
	LineTotal string  `json:"line_total"`
}

type cartResponse struct {
	Lines    []cartLineResponse `json:"lines"`
	Subtotal string             `json:"subtotal"`
	Shipping string             `json:"shipping"`
	Total    string             `json:"total"`
}

func newCartLineResponse(line models.CartLine) cartLineResponse {
	return cartLineResponse{
		ID:        line.ID,
		ProductID: line.ProductID,
		Variant:   line.Variant,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice.StringFixed(2),
		LineTotal: line.LineTotal().StringFixed(2),
	}
}

func newCartResponse(lines []models.CartLine, totals pricing.Totals) cartResponse {
	out := cartResponse{
		Lines:    make([]cartLineResponse, 0, len(lines)),
		Subtotal: totals.Subtotal.StringFixed(2),
		Shipping: totals.Shipping.StringFixed(2),
		Total:    totals.Total.StringFixed(2),
	}
	for _, line := range lines {
		out.Lines = append(out.Lines, newCartLineResponse(line))
	}
	return out
}
