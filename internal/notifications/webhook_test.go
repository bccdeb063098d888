package notifications

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/enums"
	"github.com/dukastore/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testEvent() OrderEvent {
	return OrderEvent{
		OrderID:       uuid.New(),
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Asha Buyer",
		Status:        enums.OrderStatusProcessing,
		Total:         decimal.NewFromInt(5500),
		Currency:      "KES",
		OccurredAt:    time.Now().UTC(),
	}
}

func TestWebhookNotifierPostsEvent(t *testing.T) {
	t.Parallel()

	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(config.NotifyConfig{
		WebhookURL:  srv.URL,
		FromAddress: "orders@dukastore.example",
		Timeout:     2 * time.Second,
	}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if n == nil {
		t.Fatal("expected a webhook notifier")
	}

	event := testEvent()
	if err := n.NotifyOrderConfirmed(context.Background(), event); err != nil {
		t.Fatalf("NotifyOrderConfirmed: %v", err)
	}

	if got.Type != "order.confirmed" {
		t.Fatalf("payload type %q, want order.confirmed", got.Type)
	}
	if got.OrderID != event.OrderID.String() {
		t.Fatalf("payload order id %q, want %q", got.OrderID, event.OrderID)
	}
	if got.Total != "5500.00" {
		t.Fatalf("payload total %q, want 5500.00", got.Total)
	}
}

func TestWebhookNotifierReportsEndpointFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(config.NotifyConfig{WebhookURL: srv.URL}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err := n.NotifyOrderConfirmed(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestNewWebhookNotifierRequiresEndpoint(t *testing.T) {
	t.Parallel()

	if n := NewWebhookNotifier(config.NotifyConfig{}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard})); n != nil {
		t.Fatal("expected nil notifier without endpoint")
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	t.Parallel()

	n := NewLogNotifier(logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err := n.NotifyOrderConfirmed(context.Background(), testEvent()); err != nil {
		t.Fatalf("NotifyOrderConfirmed: %v", err)
	}
}
