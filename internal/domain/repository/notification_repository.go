package repository

import (
	"context"

	"github.com/uzimatech/borehole-api/internal/domain/entity"
)

// NotificationRepository persists notifications. All read paths exclude
// soft-deleted rows.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	// ListByUser returns newest-first, at most limit entries.
	ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Notification, error)
	// GetOwned returns the notification only if it belongs to userID.
	GetOwned(ctx context.Context, id, userID string) (*entity.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
	SoftDelete(ctx context.Context, id, userID string) error
}
