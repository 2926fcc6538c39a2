package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
)

// CardGateway charges tokenized cards through a provider's REST charge
// endpoint.
type CardGateway struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewCardGateway(baseURL, apiKey string, timeout time.Duration) *CardGateway {
	return &CardGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

type cardChargeRequest struct {
	Amount      int64  `json:"amount"` // minor units
	Currency    string `json:"currency"`
	Source      string `json:"source"`
	Description string `json:"description"`
}

type cardChargeResponse struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Last4          string `json:"last4"`
	Brand          string `json:"brand"`
	FailureMessage string `json:"failure_message"`
}

func (g *CardGateway) Authorize(ctx context.Context, amount float64, currency string, creds Credentials) (*AuthResult, error) {
	if creds.CardToken == "" {
		return nil, apperr.Validation("card token is required")
	}
	body, err := json.Marshal(cardChargeRequest{
		Amount:      int64(amount * 100),
		Currency:    currency,
		Source:      creds.CardToken,
		Description: "Borehole drilling service payment",
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.External(err, "card gateway request build failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, apperr.External(err, "card gateway unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	var out cardChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, apperr.External(err, "card gateway response decode failed")
	}
	if resp.StatusCode >= 500 {
		return nil, apperr.External(nil, "card gateway returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || out.Status != "successful" {
		msg := out.FailureMessage
		if msg == "" {
			msg = "card declined"
		}
		return nil, apperr.Payment(nil, "%s", msg)
	}
	return &AuthResult{
		ProviderReference: out.ID,
		Status:            out.Status,
		CardLast4:         out.Last4,
		CardBrand:         out.Brand,
	}, nil
}

var _ PaymentGateway = (*CardGateway)(nil)
