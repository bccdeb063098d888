package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dukastore/backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubGateway struct {
	name string
	err  error
}

func (s *stubGateway) Name() string { return s.name }

func (s *stubGateway) Charge(ctx context.Context, req ChargeRequest) (*Receipt, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Receipt{Provider: s.name, Reference: "ref-" + req.OrderRef.String()}, nil
}

func TestRegistryResolvesByMethod(t *testing.T) {
	t.Parallel()

	card := &stubGateway{name: "card"}
	mpesa := &stubGateway{name: "mpesa"}
	reg := NewRegistry(map[enums.PaymentMethod]Gateway{
		enums.PaymentMethodCard:  card,
		enums.PaymentMethodMpesa: mpesa,
	})

	got, err := reg.For(enums.PaymentMethodMpesa)
	if err != nil {
		t.Fatalf("For(mpesa): %v", err)
	}
	if got.Name() != "mpesa" {
		t.Fatalf("resolved %q, want mpesa", got.Name())
	}

	if _, err := reg.For(enums.PaymentMethodPaypal); err == nil {
		t.Fatal("expected error for unregistered method")
	}
}

func TestRegistryRejectsUnknownMethod(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(map[enums.PaymentMethod]Gateway{})
	if _, err := reg.For(enums.PaymentMethod("wire")); err == nil {
		t.Fatal("expected error for invalid method")
	}
}

func TestKindOfReadsGatewayErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want ErrorKind
		ok   bool
	}{
		{Declined("card", fmt.Errorf("card refused")), ErrKindDeclined, true},
		{Timeout("mpesa", context.DeadlineExceeded), ErrKindTimeout, true},
		{Unavailable("paypal", fmt.Errorf("503")), ErrKindUnavailable, true},
		{fmt.Errorf("wrapped: %w", Declined("card", fmt.Errorf("no"))), ErrKindDeclined, true},
		{errors.New("plain"), "", false},
	}
	for _, tc := range cases {
		kind, ok := KindOf(tc.err)
		if ok != tc.ok || kind != tc.want {
			t.Fatalf("KindOf(%v) = (%q, %v), want (%q, %v)", tc.err, kind, ok, tc.want, tc.ok)
		}
	}
}

func TestClassifyMapsContextErrors(t *testing.T) {
	t.Parallel()

	err := classify("card", fmt.Errorf("post: %w", context.DeadlineExceeded))
	if kind, _ := KindOf(err); kind != ErrKindTimeout {
		t.Fatalf("deadline exceeded mapped to %q, want timeout", kind)
	}

	err = classify("card", context.Canceled)
	if kind, _ := KindOf(err); kind != ErrKindTimeout {
		t.Fatalf("canceled mapped to %q, want timeout", kind)
	}

	err = classify("card", errors.New("connection refused"))
	if kind, _ := KindOf(err); kind != ErrKindUnavailable {
		t.Fatalf("transport error mapped to %q, want unavailable", kind)
	}
}

func TestStubChargeRoundTrip(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{name: "card"}
	ref := uuid.New()
	receipt, err := gw.Charge(context.Background(), ChargeRequest{
		OrderRef: ref,
		Amount:   decimal.NewFromInt(4500),
		Currency: "KES",
	})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if receipt.Reference != "ref-"+ref.String() {
		t.Fatalf("unexpected reference %q", receipt.Reference)
	}
}

func TestNormalizeMSISDN(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"254712345678":    "254712345678",
		"0712345678":      "254712345678",
		"712345678":       "254712345678",
		"+254 712 345678": "254712345678",
		"12345":           "",
		"":                "",
	}
	for in, want := range cases {
		if got := normalizeMSISDN(in); got != want {
			t.Fatalf("normalizeMSISDN(%q) = %q, want %q", in, got, want)
		}
	}
}
