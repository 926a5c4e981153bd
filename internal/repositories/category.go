package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
)

var _ models.Repository[*models.Category] = (*CategoryRepository)(nil)

// CategoryRepository implements models.Repository[*models.Category].
//
// Categories are hard-deleted; their songs keep existing with a NULL category.
type CategoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new CategoryRepository with the given database connection
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = "id, name, slug, order_index, created_at, updated_at"

// Create inserts a category, deriving its slug from the name when empty.
func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	c.ID = shared.GenerateID()
	c.CreatedAt, c.UpdatedAt = now, now

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO categories ("+categoryColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Slug, c.OrderIndex, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return conflict(err, "failed to insert category %s", c.Slug)
	}
	return nil
}

// Get retrieves a category by ID
func (r *CategoryRepository) Get(ctx context.Context, id string) (*models.Category, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
	c, err := scanCategory(row)
	if err != nil {
		return nil, notFound(err, "category", id)
	}
	return c, nil
}

// GetBySlug retrieves a category by its unique slug
func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE slug = ?", slug)
	c, err := scanCategory(row)
	if err != nil {
		return nil, notFound(err, "category", slug)
	}
	return c, nil
}

// Update modifies name, slug and order index.
func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	c.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, slug = ?, order_index = ?, updated_at = ? WHERE id = ?",
		c.Name, c.Slug, c.OrderIndex, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return conflict(err, "failed to update category %s", c.Slug)
	}
	return expectRows(result, "category", c.ID)
}

// Delete removes a category. Songs in it are detached by the foreign key.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectRows(result, "category", id)
}

// List returns every category in display order. No criteria are supported.
func (r *CategoryRepository) List(ctx context.Context, _ map[string]any) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY order_index ASC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return categories, nil
}

func scanCategory(s scanner) (*models.Category, error) {
	var c models.Category
	if err := s.Scan(&c.ID, &c.Name, &c.Slug, &c.OrderIndex, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
