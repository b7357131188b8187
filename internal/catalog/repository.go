package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrDoorNotFound        = errors.New("door not found")
	ErrDuplicateExternalID = errors.New("door with this external id already exists")
	ErrMissingTitle        = errors.New("door title is required")
	ErrMissingPrice        = errors.New("door price is required")
	ErrMissingCategory     = errors.New("door category is required")
	ErrMissingURL          = errors.New("door url is required")
	ErrNoImages            = errors.New("door must have at least one image")
)

const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
)

type ListFilter struct {
	Category string
	PriceMin *int
	PriceMax *int
	InStock  *bool
	Search   string
	Sort     string
	Page     int
	Limit    int
}

type Repository interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, door *Door) error
	Update(ctx context.Context, door *Door) error
	GetByID(ctx context.Context, id uuid.UUID) (*Door, error)
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Door, int, error)
	ListByCategory(ctx context.Context, category string) ([]Door, error)
	ListAll(ctx context.Context) ([]Door, error)
	Similar(ctx context.Context, id uuid.UUID, limit int) ([]Door, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

const doorColumns = `id, external_id, title, price, old_price, price_unit, category,
	image_urls, thumbnail_urls, in_stock, COALESCE(description, ''), specifications, url, views,
	dimensions, materials, installation, brand, rating, sale,
	equipment, features, sizes, manufacturer, warranty, country,
	lock_count, metal_thickness, door_thickness,
	exterior_finish, interior_finish, exterior_color, interior_color,
	created_at, updated_at`

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM doors`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count doors: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) Create(ctx context.Context, door *Door) error {
	if door.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate door id: %w", err)
		}
		door.ID = id
	}

	now := time.Now().UTC()
	door.CreatedAt = now
	door.UpdatedAt = now

	query := `
		INSERT INTO doors (id, external_id, title, price, old_price, price_unit, category,
			image_urls, thumbnail_urls, in_stock, description, specifications, url, views,
			dimensions, materials, installation, brand, rating, sale,
			equipment, features, sizes, manufacturer, warranty, country,
			lock_count, metal_thickness, door_thickness,
			exterior_finish, interior_finish, exterior_color, interior_color,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
			$27, $28, $29, $30, $31, $32, $33, $34, $35)
	`
	_, err := r.db.Exec(ctx, query,
		door.ID, door.ExternalID, door.Title, door.Price, door.OldPrice, door.PriceUnit, door.Category,
		door.ImageURLs, door.ThumbnailURLs, door.InStock, door.Description, door.Specifications, door.URL, door.Views,
		door.Dimensions, door.Materials, door.Installation, door.Brand, door.Rating, door.Sale,
		door.Equipment, door.Features, door.Sizes, door.Manufacturer, door.Warranty, door.Country,
		door.LockCount, door.MetalThickness, door.DoorThickness,
		door.ExteriorFinish, door.InteriorFinish, door.ExteriorColor, door.InteriorColor,
		door.CreatedAt, door.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateExternalID
		}
		return fmt.Errorf("repository: failed to insert door %s: %w", door.ExternalID, err)
	}
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, door *Door) error {
	door.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE doors
		SET title = $1, price = $2, old_price = $3, price_unit = $4, category = $5,
			image_urls = $6, thumbnail_urls = $7, in_stock = $8, description = $9,
			specifications = $10, url = $11,
			dimensions = $12, materials = $13, installation = $14, brand = $15,
			rating = $16, sale = $17, equipment = $18, features = $19, sizes = $20,
			manufacturer = $21, warranty = $22, country = $23,
			lock_count = $24, metal_thickness = $25, door_thickness = $26,
			exterior_finish = $27, interior_finish = $28, exterior_color = $29,
			interior_color = $30, updated_at = $31
		WHERE id = $32
	`
	cmdTag, err := r.db.Exec(ctx, query,
		door.Title, door.Price, door.OldPrice, door.PriceUnit, door.Category,
		door.ImageURLs, door.ThumbnailURLs, door.InStock, door.Description,
		door.Specifications, door.URL,
		door.Dimensions, door.Materials, door.Installation, door.Brand,
		door.Rating, door.Sale, door.Equipment, door.Features, door.Sizes,
		door.Manufacturer, door.Warranty, door.Country,
		door.LockCount, door.MetalThickness, door.DoorThickness,
		door.ExteriorFinish, door.InteriorFinish, door.ExteriorColor,
		door.InteriorColor, door.UpdatedAt,
		door.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update door %s: %w", door.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrDoorNotFound
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Door, error) {
	row := r.db.QueryRow(ctx, `SELECT `+doorColumns+` FROM doors WHERE id = $1`, id)
	door, err := scanDoor(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoorNotFound
		}
		return nil, fmt.Errorf("repository: failed to select door by id %s: %w", id, err)
	}
	return door, nil
}

func (r *postgresRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM doors WHERE external_id = $1)`, externalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("repository: failed to check door %s: %w", externalID, err)
	}
	return exists, nil
}

func (r *postgresRepository) List(ctx context.Context, filter ListFilter) ([]Door, int, error) {
	where, args := buildListWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM doors` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count filtered doors: %w", err)
	}

	orderBy := " ORDER BY created_at DESC, id DESC"
	switch filter.Sort {
	case SortPriceAsc:
		orderBy = " ORDER BY price ASC, id DESC"
	case SortPriceDesc:
		orderBy = " ORDER BY price DESC, id DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM doors%s%s LIMIT $%d OFFSET $%d`,
		doorColumns, where, orderBy, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query doors: %w", err)
	}
	defer rows.Close()

	doors, err := scanDoors(rows)
	if err != nil {
		return nil, 0, err
	}
	return doors, total, nil
}

func buildListWhere(filter ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Category != "" {
		args = append(args, "%"+filter.Category+"%")
		conditions = append(conditions, fmt.Sprintf("category ILIKE $%d", len(args)))
	}
	if filter.PriceMin != nil {
		args = append(args, *filter.PriceMin)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.PriceMax != nil {
		args = append(args, *filter.PriceMax)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}
	if filter.InStock != nil {
		args = append(args, *filter.InStock)
		conditions = append(conditions, fmt.Sprintf("in_stock = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *postgresRepository) ListByCategory(ctx context.Context, category string) ([]Door, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+doorColumns+` FROM doors WHERE category = $1 ORDER BY id`, category)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query doors by category %s: %w", category, err)
	}
	defer rows.Close()
	return scanDoors(rows)
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Door, error) {
	rows, err := r.db.Query(ctx, `SELECT `+doorColumns+` FROM doors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query all doors: %w", err)
	}
	defer rows.Close()
	return scanDoors(rows)
}

// Similar возвращает двери той же категории, ближайшие по цене.
func (r *postgresRepository) Similar(ctx context.Context, id uuid.UUID, limit int) ([]Door, error) {
	door, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 4
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+doorColumns+` FROM doors
		WHERE category = $1 AND id <> $2
		ORDER BY ABS(price - $3), id
		LIMIT $4`,
		door.Category, door.ID, door.Price, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query similar doors for %s: %w", id, err)
	}
	defer rows.Close()
	return scanDoors(rows)
}

func (r *postgresRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE doors SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to increment views for door %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrDoorNotFound
	}
	return nil
}

func scanDoor(row pgx.Row) (*Door, error) {
	var d Door
	err := row.Scan(
		&d.ID, &d.ExternalID, &d.Title, &d.Price, &d.OldPrice, &d.PriceUnit, &d.Category,
		&d.ImageURLs, &d.ThumbnailURLs, &d.InStock, &d.Description, &d.Specifications, &d.URL, &d.Views,
		&d.Dimensions, &d.Materials, &d.Installation, &d.Brand, &d.Rating, &d.Sale,
		&d.Equipment, &d.Features, &d.Sizes, &d.Manufacturer, &d.Warranty, &d.Country,
		&d.LockCount, &d.MetalThickness, &d.DoorThickness,
		&d.ExteriorFinish, &d.InteriorFinish, &d.ExteriorColor, &d.InteriorColor,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDoors(rows pgx.Rows) ([]Door, error) {
	doors := make([]Door, 0)
	for rows.Next() {
		door, err := scanDoor(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan door: %w", err)
		}
		doors = append(doors, *door)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating doors: %w", err)
	}
	return doors, nil
}
