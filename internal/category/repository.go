package category

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCategoryNotFound = errors.New("category not found")

type Repository interface {
	Create(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id int) (*Category, error)
	ListByNames(ctx context.Context, names []string) ([]Category, error)
	ListAll(ctx context.Context) ([]Category, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id int) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, category *Category) error {
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now

	err := r.db.QueryRow(ctx,
		`INSERT INTO categories (name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		category.Name, category.Description, category.CreatedAt, category.UpdatedAt,
	).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to insert category %s: %w", category.Name, err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int) (*Category, error) {
	var c Category
	err := r.db.QueryRow(ctx,
		`SELECT id, name, COALESCE(description, ''), created_at, updated_at
		FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("repository: failed to select category %d: %w", id, err)
	}
	return &c, nil
}

func (r *postgresRepository) ListByNames(ctx context.Context, names []string) ([]Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, COALESCE(description, ''), created_at, updated_at
		FROM categories WHERE name = ANY($1) ORDER BY name ASC`, names)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories by names: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, COALESCE(description, ''), created_at, updated_at
		FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories: %w", err)
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *postgresRepository) Update(ctx context.Context, category *Category) error {
	category.UpdatedAt = time.Now().UTC()
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE categories SET name = $1, description = $2, updated_at = $3 WHERE id = $4`,
		category.Name, category.Description, category.UpdatedAt, category.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update category %d: %w", category.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete category %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func scanCategories(rows pgx.Rows) ([]Category, error) {
	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating categories: %w", err)
	}
	return categories, nil
}
