package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	checkoutsvc "github.com/dukastore/backend/internal/checkout"
	"github.com/dukastore/backend/internal/identity"
	"github.com/dukastore/backend/internal/payment"
	"github.com/dukastore/backend/pkg/enums"
	pkgerrors "github.com/dukastore/backend/pkg/errors"
)

type stubCheckoutService struct {
	result *checkoutsvc.Result
	err    error
	inputs []checkoutsvc.CheckoutInput
}

func (s *stubCheckoutService) Execute(_ context.Context, _ identity.Owner, input checkoutsvc.CheckoutInput) (*checkoutsvc.Result, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func checkoutBody() *bytes.Buffer {
	return bytes.NewBufferString(`{
		"email": "  jane@example.com ",
		"full_name": "Jane Doe",
		"phone": "0712345678",
		"shipping_address": "12 Biashara St, Nairobi",
		"shipping_method": "express",
		"payment_method": "card",
		"payment_token": "tok_visa"
	}`)
}

func TestCheckoutReturnsOrder(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	svc := &stubCheckoutService{result: &checkoutsvc.Result{
		OrderID:  orderID,
		Status:   enums.OrderStatusProcessing,
		Subtotal: decimal.NewFromInt(4400),
		Shipping: decimal.NewFromInt(1000),
		Total:    decimal.NewFromInt(5400),
		Receipt:  &payment.Receipt{Provider: "square", Reference: "pay_123"},
	}}
	handler := Checkout(svc, testLogger())

	req := guestContext(httptest.NewRequest(http.MethodPost, "/checkout", checkoutBody()))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got checkoutResponse
	decodeData(t, rec.Body, &got)
	require.Equal(t, orderID.String(), got.OrderID)
	require.Equal(t, string(enums.OrderStatusProcessing), got.Status)
	require.Equal(t, "4400.00", got.Subtotal)
	require.Equal(t, "1000.00", got.Shipping)
	require.Equal(t, "5400.00", got.Total)
	require.NotNil(t, got.Receipt)
	require.Equal(t, "pay_123", got.Receipt.Reference)

	// Free-text fields are trimmed before they reach the service.
	require.Len(t, svc.inputs, 1)
	require.Equal(t, "jane@example.com", svc.inputs[0].Email)
	require.Equal(t, enums.ShippingMethodExpress, svc.inputs[0].ShippingMethod)
	require.Equal(t, enums.PaymentMethodCard, svc.inputs[0].PaymentMethod)
}

func TestCheckoutMapsPaymentDecline(t *testing.T) {
	t.Parallel()

	svc := &stubCheckoutService{
		err: pkgerrors.New(pkgerrors.CodePaymentFailed, "payment was not accepted").
			WithDetails(map[string]string{"reason": string(payment.ErrKindDeclined)}),
	}
	handler := Checkout(svc, testLogger())

	req := guestContext(httptest.NewRequest(http.MethodPost, "/checkout", checkoutBody()))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var envelope struct {
		Error struct {
			Code    string          `json:"code"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, string(pkgerrors.CodePaymentFailed), envelope.Error.Code)
	require.Contains(t, string(envelope.Error.Details), "declined")
}

func TestCheckoutRejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"missing email", `{"full_name":"Jane","shipping_address":"12 Biashara St","shipping_method":"standard","payment_method":"card"}`},
		{"unknown shipping method", `{"email":"jane@example.com","full_name":"Jane","shipping_address":"12 Biashara St","shipping_method":"drone","payment_method":"card"}`},
		{"unknown payment method", `{"email":"jane@example.com","full_name":"Jane","shipping_address":"12 Biashara St","shipping_method":"standard","payment_method":"barter"}`},
		{"unknown field", `{"email":"jane@example.com","full_name":"Jane","shipping_address":"12 Biashara St","shipping_method":"standard","payment_method":"card","surprise":true}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubCheckoutService{}
			handler := Checkout(svc, testLogger())

			req := guestContext(httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(tc.body)))
			rec := httptest.NewRecorder()
			handler(rec, req)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			require.Empty(t, svc.inputs)
		})
	}
}

func TestCheckoutRequiresOwner(t *testing.T) {
	t.Parallel()

	handler := Checkout(&stubCheckoutService{}, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/checkout", checkoutBody())
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
