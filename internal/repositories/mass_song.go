package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
)

// MassSongRepository persists program entries. Entries are hard-deleted and never renumbered.
type MassSongRepository struct {
	db *sql.DB
}

// NewMassSongRepository creates a new MassSongRepository with the given database connection
func NewMassSongRepository(db *sql.DB) *MassSongRepository {
	return &MassSongRepository{db: db}
}

const entrySelect = `
	SELECT ms.id, ms.mass_id, ms.song_id, ms.position, ms.liturgical_moment, ms.selected_parts, ms.created_at,` +
	songJoinColumns + `
	FROM mass_songs ms
	LEFT JOIN songs s ON s.id = ms.song_id AND s.deleted_at IS NULL
	LEFT JOIN categories c ON c.id = s.category_id`

// Append inserts entry at position count+1 of its mass, counting and inserting in one transaction.
func (r *MassSongRepository) Append(ctx context.Context, entry *models.MassSong) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	selected, err := encodeJSON(entry.SelectedParts)
	if err != nil {
		return fmt.Errorf("failed to encode selected parts: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM mass_songs WHERE mass_id = ?", entry.MassID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count entries: %w", err)
	}

	entry.ID = shared.GenerateID()
	entry.Position = count + 1
	entry.CreatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO mass_songs (id, mass_id, song_id, position, liturgical_moment, selected_parts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.MassID, entry.SongID, entry.Position, nullString(entry.LiturgicalMoment), selected, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}
	return nil
}

// Get retrieves an entry with its song joined (nil when the song was deleted).
func (r *MassSongRepository) Get(ctx context.Context, id string) (*models.MassSong, error) {
	entry, err := scanEntry(r.db.QueryRowContext(ctx, entrySelect+" WHERE ms.id = ?", id))
	if err != nil {
		return nil, notFound(err, "entry", id)
	}
	return entry, nil
}

// ListByMass returns the entries of a mass ordered by position, insertion order breaking ties.
func (r *MassSongRepository) ListByMass(ctx context.Context, massID string) ([]*models.MassSong, error) {
	rows, err := r.db.QueryContext(ctx, entrySelect+" WHERE ms.mass_id = ? ORDER BY ms.position ASC, ms.created_at ASC", massID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.MassSong
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// UpdateSelection stores the selected part indices; an empty selection is stored as NULL.
func (r *MassSongRepository) UpdateSelection(ctx context.Context, id string, parts []int) error {
	if len(parts) == 0 {
		parts = nil
	}
	selected, err := encodeJSON(parts)
	if err != nil {
		return fmt.Errorf("failed to encode selected parts: %w", err)
	}

	result, err := r.db.ExecContext(ctx, "UPDATE mass_songs SET selected_parts = ? WHERE id = ?", selected, id)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return expectRows(result, "entry", id)
}

// UpdateMoment changes the liturgical moment label of an entry.
func (r *MassSongRepository) UpdateMoment(ctx context.Context, id, moment string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE mass_songs SET liturgical_moment = ? WHERE id = ?", nullString(moment), id)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return expectRows(result, "entry", id)
}

// Delete removes an entry, leaving a gap in the positions.
func (r *MassSongRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM mass_songs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return expectRows(result, "entry", id)
}

func scanEntry(s scanner) (*models.MassSong, error) {
	var (
		e        models.MassSong
		moment   sql.NullString
		selected sql.NullString
		song     songFields
	)

	dest := append([]any{&e.ID, &e.MassID, &e.SongID, &e.Position, &moment, &selected, &e.CreatedAt}, song.targets()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	parts, err := decodeJSON[int](selected)
	if err != nil {
		return nil, fmt.Errorf("failed to decode selected parts of entry %s: %w", e.ID, err)
	}
	e.SelectedParts = parts
	e.LiturgicalMoment = moment.String

	if e.Song, err = song.song(); err != nil {
		return nil, err
	}

	return &e, nil
}
