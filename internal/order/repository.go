package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, order *Order) error {
	if order.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate order id: %w", err)
		}
		order.ID = id
	}

	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.db.Exec(ctx,
		`INSERT INTO orders (id, name, phone, address, comment, items, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		order.ID, order.Name, order.Phone, order.Address, order.Comment,
		order.Items, order.Total, string(order.Status), order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.QueryRow(ctx,
		`SELECT id, name, phone, address, COALESCE(comment, ''), items, total, status, created_at, updated_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.Phone, &o.Address, &o.Comment, &o.Items, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}
	return &o, nil
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, phone, address, COALESCE(comment, ''), items, total, status, created_at, updated_at
		FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		err := rows.Scan(&o.ID, &o.Name, &o.Phone, &o.Address, &o.Comment, &o.Items, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders: %w", err)
	}
	return orders, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("repository: failed to update order status %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}
