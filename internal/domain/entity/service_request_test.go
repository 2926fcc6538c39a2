package entity

import (
	"testing"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
)

func newTestRequest() *ServiceRequest {
	return NewServiceRequest("user-1", ServiceDrilling,
		Specifications{DesiredDepth: 50, EquipmentTier: "standard"},
		Location{Address: Address{Street: "12 Riverside Dr", City: "Nairobi"}},
		Money{Amount: 2000, Currency: "USD"},
		Schedule{},
	)
}

func TestNewServiceRequestStartsPending(t *testing.T) {
	r := newTestRequest()
	if r.Status != RequestPending {
		t.Fatalf("status = %s, want %s", r.Status, RequestPending)
	}
	if len(r.StatusHistory) != 1 || r.StatusHistory[0].Status != RequestPending {
		t.Fatalf("expected one opening history entry, got %+v", r.StatusHistory)
	}
	if r.PaymentStatus != PaymentStatusUnpaid {
		t.Fatalf("payment status = %s, want %s", r.PaymentStatus, PaymentStatusUnpaid)
	}
	if err := r.ValidateNew(); err != nil {
		t.Fatalf("ValidateNew: %v", err)
	}
}

func TestValidateNewRejectsBadInput(t *testing.T) {
	r := newTestRequest()
	r.ServiceType = "PLUMBING"
	if err := r.ValidateNew(); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for service type, got %v", err)
	}

	r = newTestRequest()
	r.Specifications.DesiredDepth = 0
	if err := r.ValidateNew(); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for depth, got %v", err)
	}
}

func TestTransitionHappyPath(t *testing.T) {
	r := newTestRequest()
	steps := []string{RequestApproved, RequestInProgress, RequestCompleted}
	for _, next := range steps {
		if err := r.Transition(next, ""); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}
	if r.Status != RequestCompleted {
		t.Fatalf("status = %s, want %s", r.Status, RequestCompleted)
	}
	// opening entry + three transitions
	if len(r.StatusHistory) != 4 {
		t.Fatalf("history length = %d, want 4", len(r.StatusHistory))
	}
	if last := r.StatusHistory[len(r.StatusHistory)-1].Status; last != r.Status {
		t.Fatalf("history tail %s != status %s", last, r.Status)
	}
}

func TestTransitionRejectsIllegalEdges(t *testing.T) {
	r := newTestRequest()
	if err := r.Transition(RequestCompleted, ""); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("PENDING->COMPLETED should be rejected, got %v", err)
	}
	if err := r.Transition(RequestInProgress, ""); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("PENDING->IN_PROGRESS should be rejected, got %v", err)
	}
}

func TestTerminalStatesFreeze(t *testing.T) {
	r := newTestRequest()
	if err := r.Transition(RequestCancelled, "changed my mind"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !r.Terminal() {
		t.Fatal("cancelled request should be terminal")
	}
	if err := r.Transition(RequestApproved, ""); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("transition out of CANCELLED should fail, got %v", err)
	}
	if err := r.AddComment("user-1", "hello?"); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("comment on cancelled request should fail, got %v", err)
	}
	if err := r.AddAttachment("a.pdf", "http://x", "application/pdf"); !apperr.Is(err, apperr.KindInvalidState) {
		t.Fatalf("attachment on cancelled request should fail, got %v", err)
	}
}

func TestOnHoldResumesToPriorStatus(t *testing.T) {
	r := newTestRequest()
	mustTransition(t, r, RequestApproved)
	mustTransition(t, r, RequestInProgress)
	mustTransition(t, r, RequestOnHold)

	if r.ResumeStatus != RequestInProgress {
		t.Fatalf("resume status = %s, want %s", r.ResumeStatus, RequestInProgress)
	}
	// while on hold, progress reflects the status it will resume to
	if got := r.Progress(); got != 60 {
		t.Fatalf("progress on hold = %d, want 60", got)
	}
	// only the resume target is a legal exit
	if err := r.Transition(RequestCompleted, ""); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("ON_HOLD->COMPLETED should be rejected, got %v", err)
	}
	mustTransition(t, r, RequestInProgress)
	if r.ResumeStatus != "" {
		t.Fatalf("resume status not cleared: %q", r.ResumeStatus)
	}
	mustTransition(t, r, RequestCompleted)
}

func TestOnHoldFromApproved(t *testing.T) {
	r := newTestRequest()
	mustTransition(t, r, RequestApproved)
	mustTransition(t, r, RequestOnHold)
	if got := r.Progress(); got != 20 {
		t.Fatalf("progress on hold from APPROVED = %d, want 20", got)
	}
	mustTransition(t, r, RequestApproved)
}

func TestProgressWeights(t *testing.T) {
	r := newTestRequest()
	if got := r.Progress(); got != 0 {
		t.Fatalf("PENDING progress = %d, want 0", got)
	}
	mustTransition(t, r, RequestApproved)
	if got := r.Progress(); got != 20 {
		t.Fatalf("APPROVED progress = %d, want 20", got)
	}
	mustTransition(t, r, RequestInProgress)
	if got := r.Progress(); got != 60 {
		t.Fatalf("IN_PROGRESS progress = %d, want 60", got)
	}
	mustTransition(t, r, RequestCompleted)
	if got := r.Progress(); got != 100 {
		t.Fatalf("COMPLETED progress = %d, want 100", got)
	}
}

func TestMarkPaidApprovesAndSettles(t *testing.T) {
	r := newTestRequest()
	if err := r.MarkPaid("txn ok"); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if r.Status != RequestApproved {
		t.Fatalf("status = %s, want %s", r.Status, RequestApproved)
	}
	if r.PaymentStatus != PaymentStatusPaid {
		t.Fatalf("payment status = %s, want %s", r.PaymentStatus, PaymentStatusPaid)
	}
	// a second settlement has no legal edge
	if err := r.MarkPaid("again"); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("second MarkPaid should fail, got %v", err)
	}
}

func TestEditableOnlyWhilePending(t *testing.T) {
	r := newTestRequest()
	if !r.Editable() {
		t.Fatal("PENDING request should be editable")
	}
	mustTransition(t, r, RequestApproved)
	if r.Editable() {
		t.Fatal("APPROVED request should not be editable")
	}
}

func mustTransition(t *testing.T, r *ServiceRequest, next string) {
	t.Helper()
	if err := r.Transition(next, ""); err != nil {
		t.Fatalf("transition %s -> %s: %v", r.Status, next, err)
	}
}
