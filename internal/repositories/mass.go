package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
)

var _ models.Repository[*models.Mass] = (*MassRepository)(nil)

// MassRepository implements models.Repository[*models.Mass] with soft deletes.
//
// Dates are stored as YYYY-MM-DD text so range filters compare lexically.
type MassRepository struct {
	db *sql.DB
}

// NewMassRepository creates a new MassRepository with the given database connection
func NewMassRepository(db *sql.DB) *MassRepository {
	return &MassRepository{db: db}
}

const massColumns = "id, sequence, name, date, is_published, created_by, created_at, updated_at, deleted_at"

// Create inserts a new, unpublished mass.
func (r *MassRepository) Create(ctx context.Context, mass *models.Mass) error {
	if err := mass.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "masses")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	mass.ID = shared.GenerateID()
	mass.Sequence = sequence
	mass.IsPublished = false
	mass.CreatedAt, mass.UpdatedAt = now, now

	query := `
		INSERT INTO masses (id, sequence, name, date, is_published, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		mass.ID, mass.Sequence, mass.Name, mass.DateString(), nullString(mass.CreatedBy), mass.CreatedAt, mass.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert mass: %w", err)
	}

	return nil
}

// Get retrieves a mass by ID, excluding soft-deleted masses
func (r *MassRepository) Get(ctx context.Context, id string) (*models.Mass, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+massColumns+" FROM masses WHERE id = ? AND deleted_at IS NULL", id)
	mass, err := scanMass(row)
	if err != nil {
		return nil, notFound(err, "mass", id)
	}
	return mass, nil
}

// Update modifies the name and date of a mass. Publication goes through [MassRepository.SetPublished].
func (r *MassRepository) Update(ctx context.Context, mass *models.Mass) error {
	if err := mass.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	mass.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		"UPDATE masses SET name = ?, date = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		mass.Name, mass.DateString(), mass.UpdatedAt, mass.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update mass: %w", err)
	}
	return expectRows(result, "mass", mass.ID)
}

// SetPublished toggles the publication flag.
func (r *MassRepository) SetPublished(ctx context.Context, id string, published bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE masses SET is_published = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		published, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to publish mass: %w", err)
	}
	return expectRows(result, "mass", id)
}

// Delete soft-deletes a mass by ID
func (r *MassRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE masses SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete mass: %w", err)
	}
	return expectRows(result, "mass", id)
}

// List retrieves masses ordered by date, most recent first.
//
// Supported criteria:
//   - "published" (bool): only published masses when true
//   - "from", "to" ([time.Time]): inclusive date range
//   - "ascending" (bool): oldest first
//   - "limit" (int): cap the result size
func (r *MassRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Mass, error) {
	query := "SELECT " + massColumns + " FROM masses WHERE deleted_at IS NULL"
	args := []any{}

	if published, ok := criteria["published"].(bool); ok && published {
		query += " AND is_published = 1"
	}

	if from, ok := criteria["from"].(time.Time); ok && !from.IsZero() {
		query += " AND date >= ?"
		args = append(args, from.Format(shared.DateLayout))
	}

	if to, ok := criteria["to"].(time.Time); ok && !to.IsZero() {
		query += " AND date <= ?"
		args = append(args, to.Format(shared.DateLayout))
	}

	if asc, ok := criteria["ascending"].(bool); ok && asc {
		query += " ORDER BY date ASC, sequence ASC"
	} else {
		query += " ORDER BY date DESC, sequence DESC"
	}

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query masses: %w", err)
	}
	defer rows.Close()

	var masses []*models.Mass
	for rows.Next() {
		mass, err := scanMass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mass: %w", err)
		}
		masses = append(masses, mass)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return masses, nil
}

// Next returns the first mass dated on or after today.
func (r *MassRepository) Next(ctx context.Context, today time.Time, publishedOnly bool) (*models.Mass, error) {
	masses, err := r.List(ctx, map[string]any{
		"from":      today,
		"published": publishedOnly,
		"ascending": true,
		"limit":     1,
	})
	if err != nil {
		return nil, err
	}
	if len(masses) == 0 {
		return nil, fmt.Errorf("%w: no upcoming mass", shared.ErrNotFound)
	}
	return masses[0], nil
}

func scanMass(s scanner) (*models.Mass, error) {
	var (
		m         models.Mass
		date      string
		createdBy sql.NullString
		deletedAt sql.NullTime
	)

	err := s.Scan(&m.ID, &m.Sequence, &m.Name, &date, &m.IsPublished, &createdBy, &m.CreatedAt, &m.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	m.Date, err = time.Parse(shared.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	m.CreatedBy = createdBy.String
	m.DeletedAt = timePtr(deletedAt)

	return &m, nil
}
