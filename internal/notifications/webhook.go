package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/logger"
)

// WebhookNotifier posts order events to a configured HTTP endpoint,
// typically a transactional mail relay.
type WebhookNotifier struct {
	endpoint string
	from     string
	timeout  time.Duration
	client   *http.Client
	logger   *logger.Logger
}

// NewWebhookNotifier builds a notifier from config. Returns nil (not an
// error) when no endpoint is configured so callers can fall back to the
// logging notifier.
func NewWebhookNotifier(cfg config.NotifyConfig, logg *logger.Logger) *WebhookNotifier {
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		endpoint: cfg.WebhookURL,
		from:     cfg.FromAddress,
		timeout:  timeout,
		client:   &http.Client{},
		logger:   logg,
	}
}

type webhookPayload struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	From       string    `json:"from,omitempty"`
	Status     string    `json:"status"`
	Total      string    `json:"total"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (n *WebhookNotifier) NotifyOrderConfirmed(ctx context.Context, event OrderEvent) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	payload := webhookPayload{
		Type:       "order.confirmed",
		OrderID:    event.OrderID.String(),
		Email:      event.CustomerEmail,
		Name:       event.CustomerName,
		From:       n.from,
		Status:     event.Status.String(),
		Total:      event.Total.StringFixed(2),
		Currency:   event.Currency,
		OccurredAt: event.OccurredAt,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %d", res.StatusCode)
	}
	return nil
}

// LogNotifier records order events in the application log. It stands in
// for the webhook notifier in development and tests.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logg}
}

func (n *LogNotifier) NotifyOrderConfirmed(ctx context.Context, event OrderEvent) error {
	logCtx := n.logger.WithFields(ctx, map[string]any{
		"order_id": event.OrderID.String(),
		"email":    event.CustomerEmail,
		"status":   event.Status.String(),
		"total":    event.Total.StringFixed(2),
	})
	n.logger.Info(logCtx, "order confirmation queued")
	return nil
}
