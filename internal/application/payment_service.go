package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/uzimatech/borehole-api/config"
	"github.com/uzimatech/borehole-api/internal/domain/apperr"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/internal/domain/repository"
	"github.com/uzimatech/borehole-api/internal/gateway"
	"github.com/uzimatech/borehole-api/pkg/mailer"
)

// equipmentCharges maps an equipment tier to its flat surcharge. Unknown
// tiers cost nothing extra.
var equipmentCharges = map[string]float64{
	"standard":    500,
	"premium":     1000,
	"specialized": 1500,
}

// ChargeBreakdown itemizes the cost of a service request.
type ChargeBreakdown struct {
	BaseCharge      float64 `json:"base_charge"`
	DepthCharge     float64 `json:"depth_charge"`
	EquipmentCharge float64 `json:"equipment_charge"`
	Subtotal        float64 `json:"subtotal"`
	Tax             float64 `json:"tax"`
	Total           float64 `json:"total"`
	Currency        string  `json:"currency"`
}

// ComputeCharges derives a charge breakdown from pricing parameters and the
// request's depth and equipment tier. It is pure: same inputs, same output.
func ComputeCharges(base, perMeter, taxRate, depth float64, tier string) ChargeBreakdown {
	depthCharge := depth * perMeter
	equipment := equipmentCharges[strings.ToLower(tier)]
	subtotal := base + depthCharge + equipment
	tax := subtotal * taxRate
	return ChargeBreakdown{
		BaseCharge:      base,
		DepthCharge:     depthCharge,
		EquipmentCharge: equipment,
		Subtotal:        subtotal,
		Tax:             tax,
		Total:           subtotal + tax,
	}
}

// PaymentService coordinates charge calculation, gateway dispatch, and the
// paired payment/request state changes.
type PaymentService struct {
	Payments      repository.PaymentRepository
	Requests      repository.ServiceRequestRepository
	Users         repository.UserRepository
	Gateways      *gateway.Registry
	Notifications *NotificationService
	Pub           EmailEnqueuer
	Cfg           *config.Config
	Logger        *logrus.Logger
}

func NewPaymentService(payments repository.PaymentRepository, requests repository.ServiceRequestRepository, users repository.UserRepository, gateways *gateway.Registry, notifications *NotificationService, pub EmailEnqueuer, cfg *config.Config, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		Payments:      payments,
		Requests:      requests,
		Users:         users,
		Gateways:      gateways,
		Notifications: notifications,
		Pub:           pub,
		Cfg:           cfg,
		Logger:        logger,
	}
}

// CalculateCharges prices a request the actor owns.
func (s *PaymentService) CalculateCharges(ctx context.Context, requestID, actorID string) (*ChargeBreakdown, error) {
	r, err := s.Requests.GetOwned(ctx, requestID, actorID)
	if err != nil {
		return nil, err
	}
	b := ComputeCharges(s.Cfg.BaseDrillingCharge, s.Cfg.PerMeterCharge, s.Cfg.TaxRate,
		r.Specifications.DesiredDepth, r.Specifications.EquipmentTier)
	b.Currency = r.EstimatedCost.Currency
	if b.Currency == "" {
		b.Currency = "USD"
	}
	return &b, nil
}

// ProcessInput is the normalized payment submission.
type ProcessInput struct {
	RequestID   string
	Method      string
	CardToken   string
	PhoneNumber string
}

// Process charges the actor for a request. The payment row is persisted
// before the gateway is called so that a declined or failed attempt leaves an
// auditable FAILED record; the request itself is only touched on success.
func (s *PaymentService) Process(ctx context.Context, actorID string, in ProcessInput) (*entity.Payment, error) {
	r, err := s.Requests.GetOwned(ctx, in.RequestID, actorID)
	if err != nil {
		return nil, err
	}
	if r.PaymentStatus == entity.PaymentStatusPaid {
		return nil, apperr.InvalidState("request is already paid")
	}
	if r.Status != entity.RequestPending {
		return nil, apperr.InvalidState("request is %s and cannot be paid", r.Status)
	}

	breakdown := ComputeCharges(s.Cfg.BaseDrillingCharge, s.Cfg.PerMeterCharge, s.Cfg.TaxRate,
		r.Specifications.DesiredDepth, r.Specifications.EquipmentTier)
	currency := r.EstimatedCost.Currency
	if currency == "" {
		currency = "USD"
	}

	g, err := s.Gateways.Resolve(in.Method)
	if err != nil {
		return nil, err
	}

	p := entity.NewPayment(actorID, r.ID, breakdown.Total, currency, in.Method)
	if err := s.Payments.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := p.UpdateStatus(entity.PaymentProcessing, "dispatched to gateway"); err != nil {
		return nil, err
	}
	if err := s.Payments.Save(ctx, p); err != nil {
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.Cfg.GatewayTimeout)
	defer cancel()
	res, authErr := gateway.AuthorizeWithRetry(gwCtx, g, p.Amount, p.Currency,
		gateway.Credentials{CardToken: in.CardToken, PhoneNumber: in.PhoneNumber},
		s.Cfg.GatewayMaxAttempts)
	if authErr != nil {
		if err := p.UpdateStatus(entity.PaymentFailed, failureNote(authErr)); err == nil {
			if saveErr := s.Payments.Save(ctx, p); saveErr != nil && s.Logger != nil {
				s.Logger.WithError(saveErr).WithField("payment_id", p.ID).Error("failed to persist FAILED payment")
			}
		}
		return nil, authErr
	}

	p.Details = entity.PaymentDetails{
		CardLast4:         res.CardLast4,
		CardBrand:         res.CardBrand,
		MobileNumber:      in.PhoneNumber,
		ProviderReference: res.ProviderReference,
	}
	if err := p.UpdateStatus(entity.PaymentCompleted, "gateway authorized "+res.ProviderReference); err != nil {
		return nil, err
	}
	if err := s.Payments.Save(ctx, p); err != nil {
		return nil, err
	}

	if err := s.markRequestPaid(ctx, r, "payment "+p.TransactionID+" completed"); err != nil {
		return nil, err
	}

	s.Notifications.Notify(ctx, actorID, entity.NotifyPaymentReceived,
		"Payment received",
		fmt.Sprintf("Your payment of %.2f %s was received. Transaction %s.", p.Amount, p.Currency, p.TransactionID),
		entity.Reference{Model: "Payment", ID: p.ID})
	s.sendReceipt(ctx, actorID, p)
	return p, nil
}

// markRequestPaid flips the request to paid and APPROVED after the charge
// has settled. A version conflict here means the owner raced an edit during
// the gateway call; the money already moved, so the update is retried on a
// fresh copy instead of surfacing a 409 against a completed charge.
func (s *PaymentService) markRequestPaid(ctx context.Context, r *entity.ServiceRequest, note string) error {
	for attempt := 0; ; attempt++ {
		if err := r.MarkPaid(note); err != nil {
			return err
		}
		err := s.Requests.Save(ctx, r)
		if err == nil {
			return nil
		}
		if !apperr.Is(err, apperr.KindConflict) || attempt >= 2 {
			return err
		}
		fresh, getErr := s.Requests.GetByID(ctx, r.ID)
		if getErr != nil {
			return getErr
		}
		*r = *fresh
	}
}

func failureNote(err error) string {
	if apperr.Is(err, apperr.KindPayment) {
		return "declined by gateway: " + err.Error()
	}
	return "gateway unreachable: " + err.Error()
}

// sendReceipt queues a receipt email, best-effort.
func (s *PaymentService) sendReceipt(ctx context.Context, userID string, p *entity.Payment) {
	if s.Pub == nil {
		return
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("receipt email skipped, user lookup failed")
		}
		return
	}
	job := mailer.EmailJob{
		To:      u.Email,
		Subject: fmt.Sprintf("Payment receipt %s", p.TransactionID),
		Text: fmt.Sprintf("Hi %s,\n\nWe received your payment of %.2f %s for service request %s.\nTransaction reference: %s\n\n%s",
			u.FirstName, p.Amount, p.Currency, p.ServiceRequestID, p.TransactionID, s.Cfg.CompanyName),
	}
	if !s.Cfg.MailSendEnabled {
		return
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("payment_id", p.ID).Warn("failed to enqueue receipt email")
	}
}

// Get returns a payment visible to the actor: its owner, or any staff user.
func (s *PaymentService) Get(ctx context.Context, id, actorID string, staff bool) (*entity.Payment, error) {
	p, err := s.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !staff && p.UserID != actorID {
		return nil, apperr.NotFound("payment not found")
	}
	return p, nil
}

// History returns the actor's payments newest-first.
func (s *PaymentService) History(ctx context.Context, userID string) ([]*entity.Payment, error) {
	return s.Payments.ListByUser(ctx, userID)
}

// Refund issues a full or partial refund against a completed payment. Staff
// only; the owning customer is notified.
func (s *PaymentService) Refund(ctx context.Context, paymentID string, amount float64, reason string) (*entity.Payment, error) {
	p, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		amount = p.Amount
	}
	if err := p.ProcessRefund(amount, reason); err != nil {
		return nil, err
	}
	if err := s.Payments.Save(ctx, p); err != nil {
		return nil, err
	}
	s.Notifications.Notify(ctx, p.UserID, entity.NotifyPaymentRefunded,
		"Payment refunded",
		fmt.Sprintf("A refund of %.2f %s was issued for transaction %s.", amount, p.Currency, p.TransactionID),
		entity.Reference{Model: "Payment", ID: p.ID})
	return p, nil
}
