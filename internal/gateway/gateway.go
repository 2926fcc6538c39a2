package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
)

// Credentials carries the method-specific payment instrument. Exactly one of
// the fields is used depending on the adapter.
type Credentials struct {
	CardToken   string `json:"card_token,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// AuthResult is the uniform outcome of a gateway authorization.
type AuthResult struct {
	ProviderReference string
	Status            string
	CardLast4         string
	CardBrand         string
}

// PaymentGateway is the capability every payment integration exposes.
// Implementations return apperr.Payment for declines and apperr.External for
// transport failures; only the latter are worth retrying.
type PaymentGateway interface {
	Authorize(ctx context.Context, amount float64, currency string, creds Credentials) (*AuthResult, error)
}

// Registry resolves a gateway adapter from a payment method.
type Registry struct {
	adapters map[string]PaymentGateway
}

func NewRegistry() *Registry {
	return &Registry{adapters: map[string]PaymentGateway{}}
}

// Register binds one or more payment methods to an adapter.
func (r *Registry) Register(g PaymentGateway, methods ...string) {
	for _, m := range methods {
		r.adapters[m] = g
	}
}

// Resolve returns the adapter for a method, or a Validation error when the
// method has no gateway (e.g. CASH is settled offline).
func (r *Registry) Resolve(method string) (PaymentGateway, error) {
	if !entity.ValidPaymentMethod(method) {
		return nil, apperr.Validation("unknown payment method %q", method)
	}
	g, ok := r.adapters[method]
	if !ok {
		return nil, apperr.Validation("payment method %s cannot be processed online", method)
	}
	return g, nil
}

// AuthorizeWithRetry dispatches to the gateway, retrying transport failures
// with doubling backoff. Declines and context expiry are returned
// immediately.
func AuthorizeWithRetry(ctx context.Context, g PaymentGateway, amount float64, currency string, creds Credentials, maxAttempts int) (*AuthResult, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res, err := g.Authorize(ctx, amount, currency, creds)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if apperr.Is(err, apperr.KindPayment) {
			return nil, err
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
			break
		}
		if attempt < maxAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, apperr.External(ctx.Err(), "payment gateway timed out")
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}
