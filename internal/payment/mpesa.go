package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dukastore/backend/pkg/config"
	"github.com/dukastore/backend/pkg/logger"
)

const mpesaProvider = "mpesa"

// MpesaGateway pushes an STK payment prompt to the customer's phone via
// the Daraja API and treats the push acceptance as the charge outcome.
type MpesaGateway struct {
	baseURL     string
	consumerKey string
	consumerSec string
	shortCode   string
	passkey     string
	callbackURL string
	client      *http.Client
	logger      *logger.Logger
}

// NewMpesaGateway initializes the Daraja-backed mobile money gateway.
func NewMpesaGateway(cfg config.MpesaConfig, logg *logger.Logger) (*MpesaGateway, error) {
	if strings.TrimSpace(cfg.ConsumerKey) == "" || strings.TrimSpace(cfg.ConsumerToken) == "" {
		return nil, fmt.Errorf("mpesa consumer credentials are required")
	}
	if strings.TrimSpace(cfg.ShortCode) == "" || strings.TrimSpace(cfg.Passkey) == "" {
		return nil, fmt.Errorf("mpesa short code and passkey are required")
	}
	return &MpesaGateway{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		consumerKey: cfg.ConsumerKey,
		consumerSec: cfg.ConsumerToken,
		shortCode:   cfg.ShortCode,
		passkey:     cfg.Passkey,
		callbackURL: cfg.CallbackURL,
		client:      &http.Client{},
		logger:      logg,
	}, nil
}

func (g *MpesaGateway) Name() string {
	return mpesaProvider
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
	ResponseDesc      string `json:"ResponseDescription"`
}

func (g *MpesaGateway) Charge(ctx context.Context, req ChargeRequest) (*Receipt, error) {
	msisdn := normalizeMSISDN(req.CustomerPhone)
	if msisdn == "" {
		return nil, Declined(mpesaProvider, fmt.Errorf("missing or invalid phone number"))
	}

	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	stamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(g.shortCode + g.passkey + stamp))

	payload := stkPushRequest{
		BusinessShortCode: g.shortCode,
		Password:          password,
		Timestamp:         stamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            req.Amount.Round(0).String(),
		PartyA:            msisdn,
		PartyB:            g.shortCode,
		PhoneNumber:       msisdn,
		CallBackURL:       g.callbackURL,
		AccountReference:  req.OrderRef.String(),
		TransactionDesc:   "dukastore checkout",
	}

	var resp stkPushResponse
	if err := g.postJSON(ctx, "/mpesa/stkpush/v1/processrequest", token, payload, &resp); err != nil {
		return nil, err
	}

	if resp.ResponseCode != "0" {
		return nil, Declined(mpesaProvider, fmt.Errorf("stk push rejected: %s", resp.ResponseDesc))
	}
	return &Receipt{Provider: mpesaProvider, Reference: resp.CheckoutRequestID}, nil
}

func (g *MpesaGateway) accessToken(ctx context.Context) (string, error) {
	url := g.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", Unavailable(mpesaProvider, err)
	}
	httpReq.SetBasicAuth(g.consumerKey, g.consumerSec)

	res, err := g.client.Do(httpReq)
	if err != nil {
		return "", classify(mpesaProvider, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", Unavailable(mpesaProvider, fmt.Errorf("token endpoint returned %d", res.StatusCode))
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", Unavailable(mpesaProvider, err)
	}
	if body.AccessToken == "" {
		return "", Unavailable(mpesaProvider, fmt.Errorf("empty access token"))
	}
	return body.AccessToken, nil
}

func (g *MpesaGateway) postJSON(ctx context.Context, path, token string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Unavailable(mpesaProvider, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return Unavailable(mpesaProvider, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	res, err := g.client.Do(httpReq)
	if err != nil {
		return classify(mpesaProvider, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 {
		return Unavailable(mpesaProvider, fmt.Errorf("daraja returned %d", res.StatusCode))
	}
	if res.StatusCode >= 400 {
		return Declined(mpesaProvider, fmt.Errorf("daraja returned %d", res.StatusCode))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return Unavailable(mpesaProvider, err)
	}
	return nil
}

// normalizeMSISDN converts local Kenyan formats (07xx, +2547xx) to the
// 2547xx form Daraja expects. Returns "" when the number is unusable.
func normalizeMSISDN(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	switch {
	case strings.HasPrefix(cleaned, "254") && len(cleaned) == 12:
		return cleaned
	case strings.HasPrefix(cleaned, "0") && len(cleaned) == 10:
		return "254" + cleaned[1:]
	case strings.HasPrefix(cleaned, "7") && len(cleaned) == 9:
		return "254" + cleaned
	default:
		return ""
	}
}
