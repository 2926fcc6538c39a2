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

type ServiceRequestRepository struct {
	pool *pgxpool.Pool
}

func NewServiceRequestRepository(pool *pgxpool.Pool) *ServiceRequestRepository {
	return &ServiceRequestRepository{pool: pool}
}

const requestColumns = `id, user_id, service_type, location, specifications, status, status_history,
	resume_status, estimated_cost, schedule, payment_status, attachments, comments, version, created_at, updated_at`

type requestDocs struct {
	location, specs, history, cost, schedule, attachments, comments []byte
}

func marshalRequestDocs(r *entity.ServiceRequest) (requestDocs, error) {
	var d requestDocs
	var err error
	if d.location, err = json.Marshal(r.Location); err != nil {
		return d, err
	}
	if d.specs, err = json.Marshal(r.Specifications); err != nil {
		return d, err
	}
	if d.history, err = json.Marshal(r.StatusHistory); err != nil {
		return d, err
	}
	if d.cost, err = json.Marshal(r.EstimatedCost); err != nil {
		return d, err
	}
	if d.schedule, err = json.Marshal(r.Schedule); err != nil {
		return d, err
	}
	if d.attachments, err = json.Marshal(r.Attachments); err != nil {
		return d, err
	}
	if d.comments, err = json.Marshal(r.Comments); err != nil {
		return d, err
	}
	return d, nil
}

func (repo *ServiceRequestRepository) Create(ctx context.Context, r *entity.ServiceRequest) error {
	d, err := marshalRequestDocs(r)
	if err != nil {
		return err
	}
	row := repo.pool.QueryRow(ctx, `
		INSERT INTO service_requests
			(user_id, service_type, location, specifications, status, status_history,
			 resume_status, estimated_cost, schedule, payment_status, attachments, comments, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
		RETURNING id, version, created_at, updated_at
	`, r.UserID, r.ServiceType, d.location, d.specs, r.Status, d.history,
		nullIfEmpty(r.ResumeStatus), d.cost, d.schedule, r.PaymentStatus, d.attachments, d.comments)
	return row.Scan(&r.ID, &r.Version, &r.CreatedAt, &r.UpdatedAt)
}

func (repo *ServiceRequestRepository) GetByID(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	return repo.getOne(ctx, `SELECT `+requestColumns+` FROM service_requests WHERE id = $1`, id)
}

func (repo *ServiceRequestRepository) GetOwned(ctx context.Context, id, userID string) (*entity.ServiceRequest, error) {
	return repo.getOne(ctx,
		`SELECT `+requestColumns+` FROM service_requests WHERE id = $1 AND user_id = $2`, id, userID)
}

func (repo *ServiceRequestRepository) ListByUser(ctx context.Context, userID string) ([]*entity.ServiceRequest, error) {
	rows, err := repo.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM service_requests WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.ServiceRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Save writes the entity back, guarded by the version it was loaded with.
// A zero-row update means another writer got there first.
func (repo *ServiceRequestRepository) Save(ctx context.Context, r *entity.ServiceRequest) error {
	d, err := marshalRequestDocs(r)
	if err != nil {
		return err
	}
	r.UpdatedAt = time.Now().UTC()
	res, err := repo.pool.Exec(ctx, `
		UPDATE service_requests
		SET service_type = $1, location = $2, specifications = $3, status = $4,
			status_history = $5, resume_status = $6, estimated_cost = $7, schedule = $8,
			payment_status = $9, attachments = $10, comments = $11,
			version = version + 1, updated_at = $12
		WHERE id = $13 AND version = $14
	`, r.ServiceType, d.location, d.specs, r.Status, d.history, nullIfEmpty(r.ResumeStatus),
		d.cost, d.schedule, r.PaymentStatus, d.attachments, d.comments, r.UpdatedAt, r.ID, r.Version)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return apperr.Conflict("service request was modified concurrently")
	}
	r.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*entity.ServiceRequest, error) {
	r := &entity.ServiceRequest{}
	var d requestDocs
	var resume *string
	if err := row.Scan(&r.ID, &r.UserID, &r.ServiceType, &d.location, &d.specs, &r.Status,
		&d.history, &resume, &d.cost, &d.schedule, &r.PaymentStatus, &d.attachments,
		&d.comments, &r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("service request not found")
		}
		return nil, err
	}
	if resume != nil {
		r.ResumeStatus = *resume
	}
	for _, pair := range []struct {
		raw  []byte
		dest any
	}{
		{d.location, &r.Location},
		{d.specs, &r.Specifications},
		{d.history, &r.StatusHistory},
		{d.cost, &r.EstimatedCost},
		{d.schedule, &r.Schedule},
		{d.attachments, &r.Attachments},
		{d.comments, &r.Comments},
	} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (repo *ServiceRequestRepository) getOne(ctx context.Context, query string, args ...any) (*entity.ServiceRequest, error) {
	return scanRequest(repo.pool.QueryRow(ctx, query, args...))
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ repository.ServiceRequestRepository = (*ServiceRequestRepository)(nil)
