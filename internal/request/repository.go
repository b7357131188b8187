package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRequestNotFound = errors.New("request not found")

type Repository interface {
	CreateMeasurement(ctx context.Context, req *MeasurementRequest) error
	CreateCallback(ctx context.Context, req *CallbackRequest) error
	ListMeasurements(ctx context.Context) ([]MeasurementRequest, error)
	ListCallbacks(ctx context.Context) ([]CallbackRequest, error)
	UpdateMeasurementStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error
	UpdateCallbackStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateMeasurement(ctx context.Context, req *MeasurementRequest) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate request id: %w", err)
	}
	req.ID = id
	req.Status = StatusPending
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err = r.db.Exec(ctx,
		`INSERT INTO measurement_requests (id, name, phone, address, comment, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID, req.Name, req.Phone, req.Address, req.Comment, string(req.Status), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert measurement request: %w", err)
	}
	return nil
}

func (r *postgresRepository) CreateCallback(ctx context.Context, req *CallbackRequest) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate request id: %w", err)
	}
	req.ID = id
	req.Status = StatusPending
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err = r.db.Exec(ctx,
		`INSERT INTO callback_requests (id, name, phone, comment, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.Name, req.Phone, req.Comment, string(req.Status), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert callback request: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListMeasurements(ctx context.Context) ([]MeasurementRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, phone, COALESCE(address, ''), COALESCE(comment, ''), status, created_at, updated_at
		FROM measurement_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query measurement requests: %w", err)
	}
	defer rows.Close()

	requests := make([]MeasurementRequest, 0)
	for rows.Next() {
		var req MeasurementRequest
		if err := rows.Scan(&req.ID, &req.Name, &req.Phone, &req.Address, &req.Comment, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan measurement request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating measurement requests: %w", err)
	}
	return requests, nil
}

func (r *postgresRepository) ListCallbacks(ctx context.Context) ([]CallbackRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, phone, COALESCE(comment, ''), status, created_at, updated_at
		FROM callback_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query callback requests: %w", err)
	}
	defer rows.Close()

	requests := make([]CallbackRequest, 0)
	for rows.Next() {
		var req CallbackRequest
		if err := rows.Scan(&req.ID, &req.Name, &req.Phone, &req.Comment, &req.Status, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan callback request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating callback requests: %w", err)
	}
	return requests, nil
}

func (r *postgresRepository) UpdateMeasurementStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE measurement_requests SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: failed to update measurement request %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateCallbackStatus(ctx context.Context, id uuid.UUID, status RequestStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE callback_requests SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: failed to update callback request %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}
