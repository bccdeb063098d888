package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/dukastore/backend/pkg/errors"
)

func TestWriteSuccessWrapsData(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]any{"ok": true})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data["ok"] != true {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestWriteErrorMapsCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{pkgerrors.New(pkgerrors.CodeValidation, "missing field"), http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{pkgerrors.New(pkgerrors.CodeEmptyCart, "cart contains no items"), http.StatusBadRequest, "EMPTY_CART"},
		{pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for tea"), http.StatusBadRequest, "INSUFFICIENT_STOCK"},
		{pkgerrors.New(pkgerrors.CodePaymentFailed, "card declined"), http.StatusPaymentRequired, "PAYMENT_FAILED"},
		{pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found"), http.StatusNotFound, "NOT_FOUND"},
		{pkgerrors.New(pkgerrors.CodeInternal, "boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(context.Background(), nil, rec, tc.err)

		if rec.Code != tc.wantStatus {
			t.Fatalf("%v: status %d, want %d", tc.err, rec.Code, tc.wantStatus)
		}
		var envelope ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if envelope.Error.Code != tc.wantCode {
			t.Fatalf("code %q, want %q", envelope.Error.Code, tc.wantCode)
		}
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "pq: relation orders does not exist"))

	var envelope ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", envelope.Error.Message)
	}
}

func TestWriteErrorIncludesAllowedDetails(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
		WithDetails(map[string]any{"available": 2, "requested": 5})
	WriteError(context.Background(), nil, rec, err)

	var envelope ErrorEnvelope
	if jsonErr := json.Unmarshal(rec.Body.Bytes(), &envelope); jsonErr != nil {
		t.Fatalf("decode: %v", jsonErr)
	}
	details, ok := envelope.Error.Details.(map[string]any)
	if !ok {
		t.Fatalf("details missing: %s", rec.Body.String())
	}
	if details["available"] != float64(2) {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestWriteErrorWrapsUncodedErrors(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, context.DeadlineExceeded)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
}
