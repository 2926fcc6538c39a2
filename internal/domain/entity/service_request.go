package entity

import (
	"time"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
)

// Service types a customer can request.
const (
	ServiceDrilling     = "DRILLING"
	ServiceMaintenance  = "MAINTENANCE"
	ServiceRepair       = "REPAIR"
	ServiceConsultation = "CONSULTATION"
)

// ServiceRequest statuses.
const (
	RequestPending    = "PENDING"
	RequestApproved   = "APPROVED"
	RequestInProgress = "IN_PROGRESS"
	RequestCompleted  = "COMPLETED"
	RequestCancelled  = "CANCELLED"
	RequestOnHold     = "ON_HOLD"
)

// Payment settlement marker on the request itself.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

var serviceTypes = map[string]bool{
	ServiceDrilling:     true,
	ServiceMaintenance:  true,
	ServiceRepair:       true,
	ServiceConsultation: true,
}

// requestEdges enumerates the legal status transitions. ON_HOLD is handled
// separately because its exit edge depends on the stored resume status.
var requestEdges = map[string][]string{
	RequestPending:    {RequestApproved, RequestCancelled},
	RequestApproved:   {RequestInProgress, RequestOnHold},
	RequestInProgress: {RequestCompleted, RequestOnHold},
}

// progressWeights maps a status to completion percentage.
var progressWeights = map[string]int{
	RequestPending:    0,
	RequestApproved:   20,
	RequestInProgress: 60,
	RequestCompleted:  100,
	RequestCancelled:  0,
}

// ValidServiceType reports whether t is one of the enumerated service types.
func ValidServiceType(t string) bool { return serviceTypes[t] }

// StatusChange is one entry of an append-only status history log.
type StatusChange struct {
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Coordinates is a longitude/latitude pair.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Location combines resolved coordinates with the normalized address.
// Coordinates is nil when geocoding was unavailable at creation time.
type Location struct {
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Address     Address      `json:"address"`
}

// Specifications captures the technical parameters of the job.
type Specifications struct {
	DesiredDepth           float64 `json:"desired_depth"`
	GroundCondition        string  `json:"ground_condition,omitempty"`
	WaterTableDepth        float64 `json:"water_table_depth,omitempty"`
	PropertySize           string  `json:"property_size,omitempty"`
	EquipmentTier          string  `json:"equipment_tier,omitempty"`
	AdditionalRequirements string  `json:"additional_requirements,omitempty"`
}

// Money is an amount with its currency.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Schedule holds requested and confirmed dates for the job.
type Schedule struct {
	RequestedDate     *time.Time `json:"requested_date,omitempty"`
	ConfirmedDate     *time.Time `json:"confirmed_date,omitempty"`
	EstimatedDuration int        `json:"estimated_duration,omitempty"` // days
}

// Attachment is an uploaded document linked to a request.
type Attachment struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Type       string    `json:"type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Comment is a message left on a request by its owner or staff.
type Comment struct {
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ServiceRequest is a customer-submitted job tracked through a status
// lifecycle. Status always equals the last StatusHistory entry; history is
// append-only. Requests are never physically deleted: cancellation is a
// status.
type ServiceRequest struct {
	ID             string
	UserID         string
	ServiceType    string
	Location       Location
	Specifications Specifications
	Status         string
	StatusHistory  []StatusChange
	// ResumeStatus remembers the status to return to after ON_HOLD. Set when
	// entering ON_HOLD, cleared on resume.
	ResumeStatus  string
	EstimatedCost Money
	Schedule      Schedule
	PaymentStatus string
	Attachments   []Attachment
	Comments      []Comment
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewServiceRequest builds a PENDING request with its opening history entry.
func NewServiceRequest(userID, serviceType string, spec Specifications, loc Location, cost Money, sched Schedule) *ServiceRequest {
	now := time.Now().UTC()
	return &ServiceRequest{
		UserID:         userID,
		ServiceType:    serviceType,
		Location:       loc,
		Specifications: spec,
		Status:         RequestPending,
		StatusHistory: []StatusChange{
			{Status: RequestPending, Note: "request submitted", Timestamp: now},
		},
		EstimatedCost: cost,
		Schedule:      sched,
		PaymentStatus: PaymentStatusUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Terminal reports whether the request reached a final state.
func (r *ServiceRequest) Terminal() bool {
	return r.Status == RequestCompleted || r.Status == RequestCancelled
}

// CanTransition reports whether moving to next is a legal edge from the
// current status.
func (r *ServiceRequest) CanTransition(next string) bool {
	if r.Status == RequestOnHold {
		return next == r.ResumeStatus && next != ""
	}
	for _, s := range requestEdges[r.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// Transition appends a history entry and moves the request to next. Entering
// ON_HOLD records the current status as the resume target; leaving ON_HOLD
// clears it.
func (r *ServiceRequest) Transition(next, note string) error {
	if r.Terminal() {
		return apperr.InvalidTransition("request is %s and cannot change status", r.Status)
	}
	if !r.CanTransition(next) {
		return apperr.InvalidTransition("cannot move request from %s to %s", r.Status, next)
	}
	if next == RequestOnHold {
		r.ResumeStatus = r.Status
	} else if r.Status == RequestOnHold {
		r.ResumeStatus = ""
	}
	r.appendHistory(next, note)
	return nil
}

func (r *ServiceRequest) appendHistory(status, note string) {
	now := time.Now().UTC()
	r.StatusHistory = append(r.StatusHistory, StatusChange{Status: status, Note: note, Timestamp: now})
	r.Status = status
	r.UpdatedAt = now
}

// MarkPaid records settlement and approves the request. Only a PENDING
// request can be paid into approval.
func (r *ServiceRequest) MarkPaid(note string) error {
	if err := r.Transition(RequestApproved, note); err != nil {
		return err
	}
	r.PaymentStatus = PaymentStatusPaid
	return nil
}

// Progress returns the completion percentage for the current status. While
// ON_HOLD the request reports the progress of the status it will resume to.
func (r *ServiceRequest) Progress() int {
	if r.Status == RequestOnHold {
		return progressWeights[r.ResumeStatus]
	}
	return progressWeights[r.Status]
}

// AddComment appends a comment. Comments are allowed in any non-terminal
// state.
func (r *ServiceRequest) AddComment(userID, content string) error {
	if r.Terminal() {
		return apperr.InvalidState("request is %s and no longer accepts comments", r.Status)
	}
	if content == "" {
		return apperr.Validation("comment content is required")
	}
	now := time.Now().UTC()
	r.Comments = append(r.Comments, Comment{UserID: userID, Content: content, Timestamp: now})
	r.UpdatedAt = now
	return nil
}

// AddAttachment links an uploaded document. Attachments are allowed in any
// non-terminal state.
func (r *ServiceRequest) AddAttachment(name, url, contentType string) error {
	if r.Terminal() {
		return apperr.InvalidState("request is %s and no longer accepts attachments", r.Status)
	}
	now := time.Now().UTC()
	r.Attachments = append(r.Attachments, Attachment{Name: name, URL: url, Type: contentType, UploadedAt: now})
	r.UpdatedAt = now
	return nil
}

// Editable reports whether domain fields may still be mutated by the owner.
func (r *ServiceRequest) Editable() bool { return r.Status == RequestPending }

// ValidateNew checks the creation invariants.
func (r *ServiceRequest) ValidateNew() error {
	if !ValidServiceType(r.ServiceType) {
		return apperr.Validation("unknown service type %q", r.ServiceType)
	}
	if r.Specifications.DesiredDepth <= 0 {
		return apperr.Validation("desired_depth must be a positive number of meters")
	}
	if r.UserID == "" {
		return apperr.Validation("owner is required")
	}
	return nil
}
