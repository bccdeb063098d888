package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/logger"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"
)

const cardProvider = "card"

var squareBaseURLs = map[string]string{
	"sandbox":    "https://connect.squareupsandbox.com",
	"production": "https://connect.squareup.com",
}

// CardGateway charges card payments through Square.
type CardGateway struct {
	sdk        *sqclient.Client
	locationID string
	currency   string
	logger     *logger.Logger
}

// NewCardGateway initializes the Square-backed card gateway.
func NewCardGateway(cfg config.SquareConfig, logg *logger.Logger) (*CardGateway, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, fmt.Errorf("square access token is required")
	}
	env := cfg.Environment()
	baseURL, ok := squareBaseURLs[env]
	if !ok {
		return nil, fmt.Errorf("square environment must be \"sandbox\" or \"production\"")
	}
	if strings.TrimSpace(cfg.LocationID) == "" {
		return nil, fmt.Errorf("square location id is required")
	}

	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(token),
	)

	return &CardGateway{
		sdk:        sdk,
		locationID: cfg.LocationID,
		currency:   strings.ToUpper(cfg.Currency),
		logger:     logg,
	}, nil
}

func (g *CardGateway) Name() string {
	return cardProvider
}

func (g *CardGateway) Charge(ctx context.Context, req ChargeRequest) (*Receipt, error) {
	if strings.TrimSpace(req.SourceToken) == "" {
		return nil, Declined(cardProvider, errors.New("missing card source token"))
	}

	cents := req.Amount.Mul(decimalHundred).IntPart()
	currency := sq.Currency(g.currency)
	payReq := &sq.CreatePaymentRequest{
		IdempotencyKey: "checkout-" + req.OrderRef.String(),
		SourceID:       req.SourceToken,
		LocationID:     ptrString(g.locationID),
		ReferenceID:    ptrString(req.OrderRef.String()),
		AmountMoney: &sq.Money{
			Amount:   ptrInt64(cents),
			Currency: &currency,
		},
	}

	if g.logger != nil {
		lctx := g.logger.WithFields(ctx, map[string]any{
			"provider":  cardProvider,
			"order_ref": req.OrderRef.String(),
			"amount":    req.Amount.String(),
		})
		g.logger.Info(lctx, "gateway.charge.start")
	}

	resp, err := g.sdk.Payments.Create(ctx, payReq)
	if err != nil {
		return nil, g.mapError(err)
	}

	pay := resp.GetPayment()
	reference := ""
	if pay != nil && pay.GetID() != nil {
		reference = *pay.GetID()
	}
	return &Receipt{Provider: cardProvider, Reference: reference}, nil
}

func (g *CardGateway) mapError(err error) error {
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		// 4xx means Square processed the request and said no; anything
		// else is the provider misbehaving.
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return Declined(cardProvider, err)
		}
		return Unavailable(cardProvider, err)
	}
	return classify(cardProvider, err)
}

func ptrString(value string) *string {
	return &value
}

func ptrInt64(value int64) *int64 {
	return &value
}
