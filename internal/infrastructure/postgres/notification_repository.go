package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/internal/domain/repository"
)

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// visibleNotifications is the single filter all read paths share, so
// soft-deleted rows can never leak through an ad hoc query.
const visibleNotifications = `SELECT id, user_id, type, title, message, reference, is_read, is_deleted, created_at
	FROM notifications WHERE is_deleted = false`

func (repo *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	ref, err := json.Marshal(n.Reference)
	if err != nil {
		return err
	}
	row := repo.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, message, reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, n.UserID, n.Type, n.Title, n.Message, ref)
	return row.Scan(&n.ID, &n.CreatedAt)
}

func (repo *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	rows, err := repo.pool.Query(ctx,
		visibleNotifications+` AND user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (repo *NotificationRepository) GetOwned(ctx context.Context, id, userID string) (*entity.Notification, error) {
	return scanNotification(repo.pool.QueryRow(ctx,
		visibleNotifications+` AND id = $1 AND user_id = $2`, id, userID))
}

func (repo *NotificationRepository) MarkRead(ctx context.Context, id, userID string) error {
	res, err := repo.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND user_id = $2 AND is_deleted = false
	`, id, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (repo *NotificationRepository) SoftDelete(ctx context.Context, id, userID string) error {
	res, err := repo.pool.Exec(ctx, `
		UPDATE notifications SET is_deleted = true
		WHERE id = $1 AND user_id = $2 AND is_deleted = false
	`, id, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func scanNotification(row rowScanner) (*entity.Notification, error) {
	n := &entity.Notification{}
	var ref []byte
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &ref,
		&n.IsRead, &n.IsDeleted, &n.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("notification not found")
		}
		return nil, err
	}
	if len(ref) > 0 {
		if err := json.Unmarshal(ref, &n.Reference); err != nil {
			return nil, err
		}
	}
	return n, nil
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)
