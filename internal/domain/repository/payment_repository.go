package repository

import (
	"context"

	"github.com/uzimatech/borehole-api/internal/domain/entity"
)

// PaymentRepository persists payments. Save uses the same version check as
// ServiceRequestRepository.Save.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Payment, error)
	Save(ctx context.Context, p *entity.Payment) error
}
