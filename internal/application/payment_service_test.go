package application

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/uzimatech/borehole-api/config"
	"github.com/uzimatech/borehole-api/internal/domain/apperr"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/internal/gateway"
)

func TestComputeCharges(t *testing.T) {
	tests := []struct {
		name     string
		depth    float64
		tier     string
		subtotal float64
		total    float64
	}{
		{"standard tier", 50, "standard", 2000, 2320},
		{"premium tier", 50, "premium", 2500, 2900},
		{"specialized tier", 100, "specialized", 3500, 4060},
		{"unknown tier has no surcharge", 50, "", 1500, 1740},
		{"tier is case insensitive", 50, "Standard", 2000, 2320},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ComputeCharges(1000, 10, 0.16, tt.depth, tt.tier)
			if !closeTo(b.Subtotal, tt.subtotal) {
				t.Errorf("subtotal = %v, want %v", b.Subtotal, tt.subtotal)
			}
			if !closeTo(b.Total, tt.total) {
				t.Errorf("total = %v, want %v", b.Total, tt.total)
			}
			if !closeTo(b.Subtotal+b.Tax, b.Total) {
				t.Errorf("subtotal+tax = %v, total = %v", b.Subtotal+b.Tax, b.Total)
			}
		})
	}
}

func TestComputeChargesIsPure(t *testing.T) {
	a := ComputeCharges(1000, 10, 0.16, 50, "standard")
	b := ComputeCharges(1000, 10, 0.16, 50, "standard")
	if a != b {
		t.Fatalf("same inputs produced different breakdowns: %+v vs %+v", a, b)
	}
}

func closeTo(got, want float64) bool { return math.Abs(got-want) < 1e-9 }

type paymentEnv struct {
	svc      *PaymentService
	users    *memUserRepo
	requests *memRequestRepo
	payments *memPaymentRepo
	notices  *memNotificationRepo
	gw       *fakeGateway
	mail     *memEnqueuer
}

func newPaymentEnv(t *testing.T) *paymentEnv {
	t.Helper()
	users := newMemUserRepo()
	requests := newMemRequestRepo()
	payments := newMemPaymentRepo()
	notices := newMemNotificationRepo()
	gw := &fakeGateway{}
	mail := &memEnqueuer{}

	reg := gateway.NewRegistry()
	reg.Register(gw, entity.MethodCreditCard, entity.MethodDebitCard, entity.MethodMobileMoney)

	cfg := &config.Config{
		BaseDrillingCharge: 1000,
		PerMeterCharge:     10,
		TaxRate:            0.16,
		GatewayTimeout:     2 * time.Second,
		GatewayMaxAttempts: 3,
		MailSendEnabled:    true,
		CompanyName:        "Uzima Borehole Services",
	}
	logger := logrus.New()
	notificationSvc := NewNotificationService(notices, nil, logger)
	svc := NewPaymentService(payments, requests, users, reg, notificationSvc, mail, cfg, logger)
	return &paymentEnv{svc: svc, users: users, requests: requests, payments: payments, notices: notices, gw: gw, mail: mail}
}

func (e *paymentEnv) seedUserAndRequest(t *testing.T) (*entity.User, *entity.ServiceRequest) {
	t.Helper()
	ctx := context.Background()
	u := &entity.User{FirstName: "Amina", LastName: "Odhiambo", Email: "amina@example.com", PhoneNumber: "+254711000111", Role: entity.RoleCustomer}
	if err := e.users.Create(ctx, u); err != nil {
		t.Fatal(err)
	}
	r := entity.NewServiceRequest(u.ID, entity.ServiceDrilling,
		entity.Specifications{DesiredDepth: 50, EquipmentTier: "standard"},
		entity.Location{Address: entity.Address{City: "Nairobi"}},
		entity.Money{Amount: 2000, Currency: "USD"},
		entity.Schedule{})
	if err := e.requests.Create(ctx, r); err != nil {
		t.Fatal(err)
	}
	return u, r
}

func TestProcessPaymentSuccess(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	u, r := env.seedUserAndRequest(t)

	p, err := env.svc.Process(ctx, u.ID, ProcessInput{RequestID: r.ID, Method: entity.MethodCreditCard, CardToken: "tok_visa"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if p.Status != entity.PaymentCompleted {
		t.Fatalf("payment status = %s, want COMPLETED", p.Status)
	}
	if !closeTo(p.Amount, 2320) {
		t.Fatalf("amount = %v, want 2320", p.Amount)
	}
	if p.Details.ProviderReference != "prov-ref-001" {
		t.Fatalf("provider reference = %q", p.Details.ProviderReference)
	}

	stored, err := env.requests.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != entity.RequestApproved {
		t.Fatalf("request status = %s, want APPROVED", stored.Status)
	}
	if stored.PaymentStatus != entity.PaymentStatusPaid {
		t.Fatalf("request payment status = %s, want paid", stored.PaymentStatus)
	}

	ns, _ := env.notices.ListByUser(ctx, u.ID, 50)
	if len(ns) != 1 {
		t.Fatalf("notifications = %d, want exactly 1", len(ns))
	}
	if ns[0].Type != entity.NotifyPaymentReceived {
		t.Fatalf("notification type = %s", ns[0].Type)
	}
	env.mail.mu.Lock()
	queued := len(env.mail.jobs)
	env.mail.mu.Unlock()
	if queued != 1 {
		t.Fatalf("queued emails = %d, want 1", queued)
	}
}

func TestProcessDeclineLeavesRequestUntouched(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	u, r := env.seedUserAndRequest(t)
	env.gw.errs = []error{apperr.Payment(nil, "card declined")}

	_, err := env.svc.Process(ctx, u.ID, ProcessInput{RequestID: r.ID, Method: entity.MethodCreditCard, CardToken: "tok_bad"})
	if !apperr.Is(err, apperr.KindPayment) {
		t.Fatalf("expected payment error, got %v", err)
	}
	if env.gw.calls != 1 {
		t.Fatalf("declines must not be retried, calls = %d", env.gw.calls)
	}

	// the failed attempt is persisted for audit
	ps, _ := env.payments.ListByUser(ctx, u.ID)
	if len(ps) != 1 || ps[0].Status != entity.PaymentFailed {
		t.Fatalf("expected one FAILED payment, got %+v", ps)
	}

	stored, _ := env.requests.GetByID(ctx, r.ID)
	if stored.Status != entity.RequestPending || stored.PaymentStatus != entity.PaymentStatusUnpaid {
		t.Fatalf("request must be untouched, got status=%s payment=%s", stored.Status, stored.PaymentStatus)
	}
	ns, _ := env.notices.ListByUser(ctx, u.ID, 50)
	if len(ns) != 0 {
		t.Fatalf("no notification expected on decline, got %d", len(ns))
	}
}

func TestProcessRetriesTransportFailures(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	u, r := env.seedUserAndRequest(t)
	env.gw.errs = []error{apperr.External(nil, "connection reset"), nil}

	p, err := env.svc.Process(ctx, u.ID, ProcessInput{RequestID: r.ID, Method: entity.MethodCreditCard, CardToken: "tok_visa"})
	if err != nil {
		t.Fatalf("Process after retry: %v", err)
	}
	if env.gw.calls != 2 {
		t.Fatalf("calls = %d, want 2", env.gw.calls)
	}
	if p.Status != entity.PaymentCompleted {
		t.Fatalf("payment status = %s", p.Status)
	}
}

func TestProcessSurvivesConcurrentEditDuringGatewayCall(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	u, r := env.seedUserAndRequest(t)

	// owner edits the request while the gateway call is in flight, bumping
	// the stored version past the copy Process is holding
	env.gw.onAuthorize = func() {
		racing, err := env.requests.GetByID(ctx, r.ID)
		if err != nil {
			t.Fatal(err)
		}
		racing.Specifications.GroundCondition = "rocky"
		if err := env.requests.Save(ctx, racing); err != nil {
			t.Fatal(err)
		}
	}

	p, err := env.svc.Process(ctx, u.ID, ProcessInput{RequestID: r.ID, Method: entity.MethodCreditCard, CardToken: "tok_visa"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if p.Status != entity.PaymentCompleted {
		t.Fatalf("payment status = %s", p.Status)
	}
	stored, err := env.requests.GetByID(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != entity.RequestApproved {
		t.Fatalf("request status = %s, want APPROVED despite the racing edit", stored.Status)
	}
	if stored.PaymentStatus != entity.PaymentStatusPaid {
		t.Fatalf("payment status on request = %s", stored.PaymentStatus)
	}
	if stored.Specifications.GroundCondition != "rocky" {
		t.Fatal("racing edit was lost")
	}
}

func TestProcessRejectsOfflineMethods(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	u, r := env.seedUserAndRequest(t)

	_, err := env.svc.Process(ctx, u.ID, ProcessInput{RequestID: r.ID, Method: entity.MethodCash})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("CASH should be rejected, got %v", err)
	}
	_, err = env.svc.Process(ctx, u.ID, ProcessInput{RequestID: r.ID, Method: "CRYPTO"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown method should be rejected, got %v", err)
	}
}

func TestProcessRejectsPaidOrAdvancedRequests(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	u, r := env.seedUserAndRequest(t)

	if _, err := env.svc.Process(ctx, u.ID, ProcessInput{RequestID: r.ID, Method: entity.MethodCreditCard, CardToken: "tok_visa"}); err != nil {
		t.Fatal(err)
	}
	// request is now APPROVED and paid
	_, err := env.svc.Process(ctx, u.ID, ProcessInput{RequestID: r.ID, Method: entity.MethodCreditCard, CardToken: "tok_visa"})
	if !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("double payment should be rejected, got %v", err)
	}
}

func TestProcessRejectsForeignRequest(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	_, r := env.seedUserAndRequest(t)

	_, err := env.svc.Process(ctx, "someone-else", ProcessInput{RequestID: r.ID, Method: entity.MethodCreditCard})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("foreign request should read as not found, got %v", err)
	}
}

func TestCalculateCharges(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	u, r := env.seedUserAndRequest(t)

	b, err := env.svc.CalculateCharges(ctx, r.ID, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(b.Total, 2320) {
		t.Fatalf("total = %v, want 2320", b.Total)
	}
	if b.Currency != "USD" {
		t.Fatalf("currency = %q", b.Currency)
	}

	if _, err := env.svc.CalculateCharges(ctx, r.ID, "someone-else"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("foreign request should read as not found, got %v", err)
	}
}

func TestRefund(t *testing.T) {
	env := newPaymentEnv(t)
	ctx := context.Background()
	u, r := env.seedUserAndRequest(t)

	p, err := env.svc.Process(ctx, u.ID, ProcessInput{RequestID: r.ID, Method: entity.MethodCreditCard, CardToken: "tok_visa"})
	if err != nil {
		t.Fatal(err)
	}

	refunded, err := env.svc.Refund(ctx, p.ID, 0, "job cancelled before mobilization")
	if err != nil {
		t.Fatalf("Refund: %v", err)
	}
	if refunded.Status != entity.PaymentRefunded {
		t.Fatalf("status = %s, want REFUNDED", refunded.Status)
	}
	// zero amount means full refund
	if !closeTo(refunded.Refund.Amount, p.Amount) {
		t.Fatalf("refund amount = %v, want %v", refunded.Refund.Amount, p.Amount)
	}

	ns, _ := env.notices.ListByUser(ctx, u.ID, 50)
	if len(ns) != 2 || ns[0].Type != entity.NotifyPaymentRefunded {
		t.Fatalf("expected refund notification first, got %+v", ns)
	}

	if _, err := env.svc.Refund(ctx, p.ID, 0, "again"); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("double refund should fail, got %v", err)
	}
}
