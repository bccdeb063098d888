package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/logger"
)

const paypalProvider = "paypal"

// PaypalGateway captures a wallet payment through the PayPal Orders v2
// API: create an order, then capture it in the same call.
type PaypalGateway struct {
	baseURL      string
	clientID     string
	clientSecret string
	currency     string
	client       *http.Client
	logger       *logger.Logger
}

func NewPaypalGateway(cfg config.PaypalConfig, logg *logger.Logger) (*PaypalGateway, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("paypal client credentials are required")
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		return nil, fmt.Errorf("paypal currency is required")
	}
	return &PaypalGateway{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		currency:     cfg.Currency,
		client:       &http.Client{},
		logger:       logg,
	}, nil
}

func (g *PaypalGateway) Name() string {
	return paypalProvider
}

type paypalOrderRequest struct {
	Intent        string               `json:"intent"`
	PurchaseUnits []paypalPurchaseUnit `json:"purchase_units"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id"`
	Amount      paypalAmount `json:"amount"`
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (g *PaypalGateway) Charge(ctx context.Context, req ChargeRequest) (*Receipt, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := paypalOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: req.OrderRef.String(),
			Amount: paypalAmount{
				CurrencyCode: g.currency,
				Value:        req.Amount.StringFixed(2),
			},
		}},
	}

	created, err := g.postOrder(ctx, "/v2/checkout/orders", token, req.OrderRef.String(), payload)
	if err != nil {
		return nil, err
	}

	captured, err := g.postOrder(ctx, "/v2/checkout/orders/"+created.ID+"/capture", token, req.OrderRef.String(), nil)
	if err != nil {
		return nil, err
	}
	if captured.Status != "COMPLETED" {
		return nil, Declined(paypalProvider, fmt.Errorf("capture ended in status %s", captured.Status))
	}
	return &Receipt{Provider: paypalProvider, Reference: captured.ID}, nil
}

func (g *PaypalGateway) accessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", Unavailable(paypalProvider, err)
	}
	httpReq.SetBasicAuth(g.clientID, g.clientSecret)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := g.client.Do(httpReq)
	if err != nil {
		return "", classify(paypalProvider, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", Unavailable(paypalProvider, fmt.Errorf("token endpoint returned %d", res.StatusCode))
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", Unavailable(paypalProvider, err)
	}
	if body.AccessToken == "" {
		return "", Unavailable(paypalProvider, fmt.Errorf("empty access token"))
	}
	return body.AccessToken, nil
}

func (g *PaypalGateway) postOrder(ctx context.Context, path, token, requestID string, payload any) (*paypalOrderResponse, error) {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, Unavailable(paypalProvider, err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, body)
	if err != nil {
		return nil, Unavailable(paypalProvider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("PayPal-Request-Id", requestID)

	res, err := g.client.Do(httpReq)
	if err != nil {
		return nil, classify(paypalProvider, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 {
		return nil, Unavailable(paypalProvider, fmt.Errorf("paypal returned %d", res.StatusCode))
	}
	if res.StatusCode >= 400 {
		return nil, Declined(paypalProvider, fmt.Errorf("paypal returned %d", res.StatusCode))
	}

	var out paypalOrderResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, Unavailable(paypalProvider, err)
	}
	return &out, nil
}
