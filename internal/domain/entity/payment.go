package entity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
)

// Payment methods accepted by the platform.
const (
	MethodCreditCard   = "CREDIT_CARD"
	MethodDebitCard    = "DEBIT_CARD"
	MethodBankTransfer = "BANK_TRANSFER"
	MethodMobileMoney  = "MOBILE_MONEY"
	MethodCash         = "CASH"
)

// Payment statuses.
const (
	PaymentPending    = "PENDING"
	PaymentProcessing = "PROCESSING"
	PaymentCompleted  = "COMPLETED"
	PaymentFailed     = "FAILED"
	PaymentRefunded   = "REFUNDED"
)

var paymentMethods = map[string]bool{
	MethodCreditCard:   true,
	MethodDebitCard:    true,
	MethodBankTransfer: true,
	MethodMobileMoney:  true,
	MethodCash:         true,
}

var paymentEdges = map[string][]string{
	PaymentPending:    {PaymentProcessing},
	PaymentProcessing: {PaymentCompleted, PaymentFailed},
	PaymentCompleted:  {PaymentRefunded},
}

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool { return paymentMethods[m] }

// PaymentDetails carries non-sensitive gateway echo data.
type PaymentDetails struct {
	CardLast4         string `json:"card_last4,omitempty"`
	CardBrand         string `json:"card_brand,omitempty"`
	MobileNumber      string `json:"mobile_number,omitempty"`
	ProviderReference string `json:"provider_reference,omitempty"`
}

// RefundDetails records a refund issued against a completed payment.
type RefundDetails struct {
	Amount              float64   `json:"amount"`
	Reason              string    `json:"reason"`
	RefundedAt          time.Time `json:"refunded_at"`
	RefundTransactionID string    `json:"refund_transaction_id"`
}

// Payment is owned by one user and references exactly one service request.
// StatusHistory is append-only; REFUNDED and FAILED are terminal.
type Payment struct {
	ID               string
	UserID           string
	ServiceRequestID string
	Amount           float64
	Currency         string
	Method           string
	Status           string
	TransactionID    string
	Details          PaymentDetails
	StatusHistory    []StatusChange
	Refund           *RefundDetails
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewPayment builds a PENDING payment with a fresh transaction id.
func NewPayment(userID, requestID string, amount float64, currency, method string) *Payment {
	now := time.Now().UTC()
	return &Payment{
		UserID:           userID,
		ServiceRequestID: requestID,
		Amount:           amount,
		Currency:         currency,
		Method:           method,
		Status:           PaymentPending,
		TransactionID:    NewTransactionID("TXN"),
		StatusHistory: []StatusChange{
			{Status: PaymentPending, Note: "payment initiated", Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTransactionID generates a unique transaction reference: prefix, unix
// millisecond timestamp, and a random hex suffix.
func NewTransactionID(prefix string) string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s%d%s", prefix, time.Now().UnixMilli(), strings.ToUpper(hex.EncodeToString(b)))
}

// Terminal reports whether the payment can no longer change status.
func (p *Payment) Terminal() bool {
	return p.Status == PaymentRefunded || p.Status == PaymentFailed
}

// UpdateStatus appends a history entry and moves the payment to next,
// enforcing the state machine. Once REFUNDED or FAILED no further transition
// is permitted.
func (p *Payment) UpdateStatus(next, note string) error {
	if p.Terminal() {
		return apperr.InvalidTransition("payment is %s and cannot change status", p.Status)
	}
	allowed := false
	for _, s := range paymentEdges[p.Status] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperr.InvalidTransition("cannot move payment from %s to %s", p.Status, next)
	}
	now := time.Now().UTC()
	p.StatusHistory = append(p.StatusHistory, StatusChange{Status: next, Note: note, Timestamp: now})
	p.Status = next
	p.UpdatedAt = now
	return nil
}

// ProcessRefund records refund details and moves the payment to REFUNDED.
// Only a COMPLETED payment can be refunded.
func (p *Payment) ProcessRefund(amount float64, reason string) error {
	if p.Status != PaymentCompleted {
		return apperr.InvalidState("cannot refund a payment that is %s", p.Status)
	}
	if amount <= 0 || amount > p.Amount {
		return apperr.Validation("refund amount must be positive and not exceed %v", p.Amount)
	}
	p.Refund = &RefundDetails{
		Amount:              amount,
		Reason:              reason,
		RefundedAt:          time.Now().UTC(),
		RefundTransactionID: NewTransactionID("REF"),
	}
	return p.UpdateStatus(PaymentRefunded, fmt.Sprintf("refunded %v %s - %s", amount, p.Currency, reason))
}
