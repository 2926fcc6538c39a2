package entity

import "time"

// Notification types emitted by lifecycle events.
const (
	NotifyRequestCreated  = "REQUEST_CREATED"
	NotifyStatusChanged   = "STATUS_CHANGED"
	NotifyPaymentReceived = "PAYMENT_RECEIVED"
	NotifyPaymentRefunded = "PAYMENT_REFUNDED"
	NotifyCommentAdded    = "COMMENT_ADDED"
)

// Reference is a polymorphic pointer to the entity a notification is about.
type Reference struct {
	Model string `json:"model"` // "ServiceRequest" or "Payment"
	ID    string `json:"id"`
}

// Notification is a user-scoped in-app notice. Deletion is soft: rows are
// flagged and filtered out, never removed.
type Notification struct {
	ID        string
	UserID    string
	Type      string
	Title     string
	Message   string
	Reference Reference
	IsRead    bool
	IsDeleted bool
	CreatedAt time.Time
}
