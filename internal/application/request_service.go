package application

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/internal/domain/repository"
	"github.com/uzimatech/borehole-api/internal/geo"
	"github.com/uzimatech/borehole-api/pkg/helpers"
)

// RequestService owns the service-request lifecycle: creation, pre-approval
// edits, comments, attachments, and status transitions.
type RequestService struct {
	Repo          repository.ServiceRequestRepository
	Users         repository.UserRepository
	Geocoder      geo.Geocoder
	Notifications *NotificationService
	GCS           *storage.Client
	GCSBucket     string
	ES            *elasticsearch.Client
	ESIndex       string
	Logger        *logrus.Logger
}

func NewRequestService(repo repository.ServiceRequestRepository, users repository.UserRepository, geocoder geo.Geocoder, notifications *NotificationService, gcs *storage.Client, gcsBucket string, es *elasticsearch.Client, esIndex string, logger *logrus.Logger) *RequestService {
	return &RequestService{
		Repo:          repo,
		Users:         users,
		Geocoder:      geocoder,
		Notifications: notifications,
		GCS:           gcs,
		GCSBucket:     gcsBucket,
		ES:            es,
		ESIndex:       esIndex,
		Logger:        logger,
	}
}

// CreateRequestInput is the normalized creation payload.
type CreateRequestInput struct {
	ServiceType    string
	Address        string
	Specifications entity.Specifications
	EstimatedCost  entity.Money
	RequestedDate  *time.Time
}

// Create validates input, geocodes the address with a bounded timeout, and
// persists a PENDING request. A geocoder failure downgrades to an ungeocoded
// record instead of blocking submission.
func (s *RequestService) Create(ctx context.Context, ownerID string, in CreateRequestInput) (*entity.ServiceRequest, error) {
	loc := s.resolveLocation(ctx, in.Address)
	cost := in.EstimatedCost
	if cost.Currency == "" {
		cost.Currency = "USD"
	}
	sched := entity.Schedule{RequestedDate: in.RequestedDate}
	r := entity.NewServiceRequest(ownerID, in.ServiceType, in.Specifications, loc, cost, sched)
	if err := r.ValidateNew(); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.Notifications.Notify(ctx, ownerID, entity.NotifyRequestCreated,
		"Service request received",
		fmt.Sprintf("Your %s request has been received and is pending review.", strings.ToLower(r.ServiceType)),
		entity.Reference{Model: "ServiceRequest", ID: r.ID})
	s.index(ctx, r)
	return r, nil
}

// resolveLocation geocodes best-effort. The raw address is always preserved
// in the street field when resolution fails so that staff can geocode later.
func (s *RequestService) resolveLocation(ctx context.Context, address string) entity.Location {
	if address == "" || s.Geocoder == nil {
		return entity.Location{Address: entity.Address{Street: address}}
	}
	res, err := s.Geocoder.Resolve(ctx, address)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("geocoding failed, storing ungeocoded address")
		}
		return entity.Location{Address: entity.Address{Street: address}}
	}
	coords := res.Coordinates
	return entity.Location{Coordinates: &coords, Address: res.Address}
}

// Get returns a request visible to the actor: its owner, or any staff user.
func (s *RequestService) Get(ctx context.Context, id, actorID string, staff bool) (*entity.ServiceRequest, error) {
	if staff {
		return s.Repo.GetByID(ctx, id)
	}
	return s.Repo.GetOwned(ctx, id, actorID)
}

// ListForUser returns the actor's requests newest-first.
func (s *RequestService) ListForUser(ctx context.Context, userID string) ([]*entity.ServiceRequest, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// UpdateRequestInput carries optional pre-approval edits.
type UpdateRequestInput struct {
	Address        string
	Specifications *entity.Specifications
	RequestedDate  *time.Time
}

// Update mutates domain fields while the request is still PENDING.
func (s *RequestService) Update(ctx context.Context, id, actorID string, in UpdateRequestInput) (*entity.ServiceRequest, error) {
	r, err := s.Repo.GetOwned(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if !r.Editable() {
		return nil, apperr.InvalidState("request can no longer be edited once %s", r.Status)
	}
	if in.Address != "" {
		r.Location = s.resolveLocation(ctx, in.Address)
	}
	if in.Specifications != nil {
		if in.Specifications.DesiredDepth <= 0 {
			return nil, apperr.Validation("desired_depth must be a positive number of meters")
		}
		r.Specifications = *in.Specifications
	}
	if in.RequestedDate != nil {
		r.Schedule.RequestedDate = in.RequestedDate
	}
	if err := s.Repo.Save(ctx, r); err != nil {
		return nil, err
	}
	s.index(ctx, r)
	return r, nil
}

// Cancel ends a PENDING request. Cancellation is a status change; the row
// stays.
func (s *RequestService) Cancel(ctx context.Context, id, actorID string, staff bool) (*entity.ServiceRequest, error) {
	r, err := s.Get(ctx, id, actorID, staff)
	if err != nil {
		return nil, err
	}
	if err := r.Transition(entity.RequestCancelled, "cancelled by "+roleName(staff)); err != nil {
		return nil, err
	}
	if err := s.Repo.Save(ctx, r); err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, r)
	s.index(ctx, r)
	return r, nil
}

func roleName(staff bool) string {
	if staff {
		return "staff"
	}
	return "customer"
}

// Transition moves a request along the lifecycle. Only staff may call this.
func (s *RequestService) Transition(ctx context.Context, id, actorID, next, note string) (*entity.ServiceRequest, error) {
	r, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.Transition(next, note); err != nil {
		return nil, err
	}
	if err := s.Repo.Save(ctx, r); err != nil {
		return nil, err
	}
	s.notifyStatus(ctx, r)
	s.index(ctx, r)
	return r, nil
}

func (s *RequestService) notifyStatus(ctx context.Context, r *entity.ServiceRequest) {
	s.Notifications.Notify(ctx, r.UserID, entity.NotifyStatusChanged,
		"Request status updated",
		fmt.Sprintf("Your service request is now %s.", r.Status),
		entity.Reference{Model: "ServiceRequest", ID: r.ID})
}

// AddComment appends a comment from the owner or staff.
func (s *RequestService) AddComment(ctx context.Context, id, actorID string, staff bool, content string) (*entity.ServiceRequest, error) {
	r, err := s.Get(ctx, id, actorID, staff)
	if err != nil {
		return nil, err
	}
	if err := r.AddComment(actorID, content); err != nil {
		return nil, err
	}
	if err := s.Repo.Save(ctx, r); err != nil {
		return nil, err
	}
	if staff && actorID != r.UserID {
		s.Notifications.Notify(ctx, r.UserID, entity.NotifyCommentAdded,
			"New comment on your request",
			"Staff commented on your service request.",
			entity.Reference{Model: "ServiceRequest", ID: r.ID})
	}
	return r, nil
}

// AddAttachment stores an uploaded document in GCS under a deterministic
// name and links it to the request.
func (s *RequestService) AddAttachment(ctx context.Context, id, actorID string, file io.Reader, filename, contentType string) (*entity.ServiceRequest, error) {
	r, err := s.Repo.GetOwned(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if r.Terminal() {
		return nil, apperr.InvalidState("request is %s and no longer accepts attachments", r.Status)
	}
	if s.GCS == nil || s.GCSBucket == "" {
		return nil, apperr.External(nil, "file storage is not configured")
	}
	name := attachmentName(r.ID, filename)
	objectPath := attachmentObjectPath(r.ID, name)
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, file)
	if err != nil {
		return nil, apperr.External(err, "attachment upload failed")
	}
	if err := r.AddAttachment(name, url, contentType); err != nil {
		return nil, err
	}
	if err := s.Repo.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// attachmentName rewrites an upload to a deterministic per-request file name,
// keeping only the original extension.
func attachmentName(requestID, filename string) string {
	return fmt.Sprintf("attachment_%s%s", requestID, strings.ToLower(filepath.Ext(filename)))
}

func attachmentObjectPath(requestID, name string) string {
	return path.Join("attachments", requestID, name)
}

// Timeline returns the append-only status history.
func (s *RequestService) Timeline(ctx context.Context, id, actorID string, staff bool) ([]entity.StatusChange, error) {
	r, err := s.Get(ctx, id, actorID, staff)
	if err != nil {
		return nil, err
	}
	return r.StatusHistory, nil
}

// index mirrors a request into Elasticsearch for staff search. Failures are
// logged only.
func (s *RequestService) index(ctx context.Context, r *entity.ServiceRequest) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":           r.ID,
		"user_id":      r.UserID,
		"service_type": r.ServiceType,
		"status":       r.Status,
		"city":         r.Location.Address.City,
		"country":      r.Location.Address.Country,
		"created_at":   r.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":   r.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: r.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("request_id", r.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("request_id", r.ID).Warn("es index response error")
	}
}

// Search performs a staff-side multi_match over indexed requests.
func (s *RequestService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"service_type^2", "status", "city", "country"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, apperr.External(err, "search unavailable")
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
