package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uzimatech/borehole-api/internal/domain/apperr"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/internal/domain/repository"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const paymentColumns = `id, user_id, service_request_id, amount, currency, method, status,
	transaction_id, details, status_history, refund, version, created_at, updated_at`

func (repo *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	details, err := json.Marshal(p.Details)
	if err != nil {
		return err
	}
	history, err := json.Marshal(p.StatusHistory)
	if err != nil {
		return err
	}
	var refund []byte
	if p.Refund != nil {
		if refund, err = json.Marshal(p.Refund); err != nil {
			return err
		}
	}
	row := repo.pool.QueryRow(ctx, `
		INSERT INTO payments
			(user_id, service_request_id, amount, currency, method, status,
			 transaction_id, details, status_history, refund, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
		RETURNING id, version, created_at, updated_at
	`, p.UserID, p.ServiceRequestID, p.Amount, p.Currency, p.Method, p.Status,
		p.TransactionID, details, history, refund)
	return row.Scan(&p.ID, &p.Version, &p.CreatedAt, &p.UpdatedAt)
}

func (repo *PaymentRepository) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	return scanPayment(repo.pool.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
}

func (repo *PaymentRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Payment, error) {
	rows, err := repo.pool.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Save writes the entity back guarded by its loaded version.
func (repo *PaymentRepository) Save(ctx context.Context, p *entity.Payment) error {
	details, err := json.Marshal(p.Details)
	if err != nil {
		return err
	}
	history, err := json.Marshal(p.StatusHistory)
	if err != nil {
		return err
	}
	var refund []byte
	if p.Refund != nil {
		if refund, err = json.Marshal(p.Refund); err != nil {
			return err
		}
	}
	p.UpdatedAt = time.Now().UTC()
	res, err := repo.pool.Exec(ctx, `
		UPDATE payments
		SET status = $1, details = $2, status_history = $3, refund = $4,
			version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7
	`, p.Status, details, history, refund, p.UpdatedAt, p.ID, p.Version)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.Conflict("payment was modified concurrently")
	}
	p.Version++
	return nil
}

func scanPayment(row rowScanner) (*entity.Payment, error) {
	p := &entity.Payment{}
	var details, history, refund []byte
	if err := row.Scan(&p.ID, &p.UserID, &p.ServiceRequestID, &p.Amount, &p.Currency,
		&p.Method, &p.Status, &p.TransactionID, &details, &history, &refund,
		&p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("payment not found")
		}
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &p.Details); err != nil {
			return nil, err
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &p.StatusHistory); err != nil {
			return nil, err
		}
	}
	if len(refund) > 0 {
		p.Refund = &entity.RefundDetails{}
		if err := json.Unmarshal(refund, p.Refund); err != nil {
			return nil, err
		}
	}
	return p, nil
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)
