package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusUnprocessableEntity},
		{CodeEmptyCart, http.StatusBadRequest},
		{CodeInsufficientStock, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodePaymentFailed, http.StatusPaymentRequired},
		{CodeInternal, http.StatusInternalServerError},
		{CodeDependency, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.status, got)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("connection reset")
	err := Wrap(CodeDependency, cause, "charge card")

	if err.Unwrap() != cause {
		t.Fatalf("expected cause to be preserved")
	}
	if !IsCode(err, CodeDependency) {
		t.Fatalf("expected dependency code")
	}
	if IsCode(err, CodeValidation) {
		t.Fatalf("unexpected validation code match")
	}
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	t.Parallel()

	inner := New(CodeInsufficientStock, "only 2 left").WithDetails(map[string]any{"product_id": 7})
	wrapped := fmt.Errorf("checkout: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeInsufficientStock {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if typed.Details() == nil {
		t.Fatal("expected details to survive wrapping")
	}
}

func TestNilErrorAccessors(t *testing.T) {
	t.Parallel()

	var err *Error
	if err.Code() != CodeInternal {
		t.Fatalf("nil error should report internal code")
	}
	if err.Error() != "" || err.Message() != "" {
		t.Fatalf("nil error should render empty strings")
	}
}
