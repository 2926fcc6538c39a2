package repository

import (
	"context"

	"github.com/uzimatech/borehole-api/internal/domain/entity"
)

// ServiceRequestRepository persists service requests. Save performs an
// optimistic-concurrency update: it succeeds only when the stored row still
// carries the version the entity was loaded with, and returns
// apperr.Conflict otherwise. Racing history appends therefore cannot both
// win.
type ServiceRequestRepository interface {
	Create(ctx context.Context, r *entity.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*entity.ServiceRequest, error)
	GetOwned(ctx context.Context, id, userID string) (*entity.ServiceRequest, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.ServiceRequest, error)
	Save(ctx context.Context, r *entity.ServiceRequest) error
}
