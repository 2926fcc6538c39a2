package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
)

// MobileMoneyGateway initiates STK-push style charges against a mobile money
// provider.
type MobileMoneyGateway struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewMobileMoneyGateway(baseURL, apiKey string, timeout time.Duration) *MobileMoneyGateway {
	return &MobileMoneyGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

type mobileChargeRequest struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	PhoneNumber string  `json:"phone_number"`
	Narrative   string  `json:"narrative"`
}

type mobileChargeResponse struct {
	TransactionRef string `json:"transaction_ref"`
	Status         string `json:"status"`
	ErrorMessage   string `json:"error_message"`
}

func (g *MobileMoneyGateway) Authorize(ctx context.Context, amount float64, currency string, creds Credentials) (*AuthResult, error) {
	if creds.PhoneNumber == "" {
		return nil, apperr.Validation("phone number is required for mobile money")
	}
	body, err := json.Marshal(mobileChargeRequest{
		Amount:      amount,
		Currency:    currency,
		PhoneNumber: creds.PhoneNumber,
		Narrative:   "Borehole drilling service payment",
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/collections", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.External(err, "mobile money gateway request build failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, apperr.External(err, "mobile money gateway unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	var out mobileChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.External(err, "mobile money gateway response decode failed")
	}
	if resp.StatusCode >= 500 {
		return nil, apperr.External(nil, "mobile money gateway returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || out.Status != "successful" {
		msg := out.ErrorMessage
		if msg == "" {
			msg = "mobile money charge failed"
		}
		return nil, apperr.Payment(nil, "%s", msg)
	}
	return &AuthResult{ProviderReference: out.TransactionRef, Status: out.Status}, nil
}

var _ PaymentGateway = (*MobileMoneyGateway)(nil)
