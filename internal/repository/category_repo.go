package repository

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository defines methods for accessing categories.
type CategoryRepository interface {
	// ListVisible returns the user's own categories followed by the system defaults.
	ListVisible(ctx context.Context, userID string) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	// CreateCategory inserts c. When c belongs to a user and maxCategories > 0 the
	// user's category count is checked in the same transaction; ErrLimitExceeded
	// is returned once the count reaches maxCategories.
	CreateCategory(ctx context.Context, c *model.Category, maxCategories int) error
	// UpdateCategory replaces c's editable fields. The type only changes while no
	// transaction references the category; otherwise ErrInUse is returned.
	UpdateCategory(ctx context.Context, c *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

type categoryRepo struct {
	pool *pgxpool.Pool
}

// NewCategoryRepo creates a new CategoryRepository.
func NewCategoryRepo(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepo{pool: pool}
}

const categoryColumns = `id, user_id, name, type, color, icon, created_at, updated_at`

func scanCategory(row pgx.Row) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Color, &c.Icon, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepo) ListVisible(ctx context.Context, userID string) ([]model.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE user_id = $1 OR user_id IS NULL
		ORDER BY user_id NULLS LAST, type, name
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying categories for user %s: %w", userID, err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category row: %w", err)
		}
		categories = append(categories, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}
	return categories, nil
}

func (r *categoryRepo) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting category %s: %w", id, err)
	}
	return c, nil
}

func (r *categoryRepo) CreateCategory(ctx context.Context, c *model.Category, maxCategories int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting transaction for category create: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if c.UserID != nil && maxCategories > 0 {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = $1`, *c.UserID).Scan(&count); err != nil {
			return fmt.Errorf("counting categories for user %s: %w", *c.UserID, err)
		}
		if count >= maxCategories {
			return ErrLimitExceeded
		}
	}

	query := `
		INSERT INTO categories (id, user_id, name, type, color, icon)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + categoryColumns
	created, err := scanCategory(tx.QueryRow(ctx, query, c.ID, c.UserID, c.Name, c.Type, c.Color, c.Icon))
	if err != nil {
		return fmt.Errorf("creating category: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing category create: %w", err)
	}
	*c = *created
	return nil
}

func (r *categoryRepo) UpdateCategory(ctx context.Context, c *model.Category) error {
	query := `
		UPDATE categories
		SET name = $2, type = $3, color = $4, icon = $5, updated_at = NOW()
		WHERE id = $1
		  AND (type = $3 OR NOT EXISTS (SELECT 1 FROM transactions WHERE category_id = $1))
		RETURNING ` + categoryColumns
	updated, err := scanCategory(r.pool.QueryRow(ctx, query, c.ID, c.Name, c.Type, c.Color, c.Icon))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("updating category %s: %w", c.ID, err)
		}
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
			return fmt.Errorf("checking category %s: %w", c.ID, err)
		}
		if exists {
			return ErrInUse
		}
		return ErrNotFound
	}
	*c = *updated
	return nil
}

// DeleteCategory removes the category. Transactions keep their rows with a NULL category.
func (r *categoryRepo) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting category %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
