package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
)

var _ models.Repository[*models.Song] = (*SongRepository)(nil)

// SongRepository implements models.Repository[*models.Song] with soft deletes.
//
// lyrics_structure is stored as a JSON array so part order survives round trips.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// songJoinColumns selects a song (alias s) and its category (alias c). Every column may be NULL
// because entries LEFT JOIN onto songs that were deleted.
const songJoinColumns = `
	s.id, s.sequence, s.title, s.musical_key, s.audio_url, s.video_url, s.duration, s.category_id,
	s.lyrics_structure, s.lyrics, s.created_at, s.updated_at, s.deleted_at,
	c.id, c.name, c.slug, c.order_index`

const songFrom = `
	FROM songs s
	LEFT JOIN categories c ON c.id = s.category_id`

// Create inserts a new song with generated ID and sequence
func (r *SongRepository) Create(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	structure, err := encodeJSON(song.LyricsStructure)
	if err != nil {
		return fmt.Errorf("failed to encode lyrics structure: %w", err)
	}

	now := time.Now().UTC()
	song.ID = shared.GenerateID()
	song.Sequence = sequence
	song.CreatedAt, song.UpdatedAt = now, now

	query := `
		INSERT INTO songs (id, sequence, title, title_folded, musical_key, audio_url, video_url, duration, category_id,
			lyrics_structure, lyrics, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		song.ID,
		song.Sequence,
		song.Title,
		shared.Fold(song.Title),
		nullString(song.Key),
		nullString(song.AudioURL),
		nullString(song.VideoURL),
		sql.NullInt64{Int64: int64(song.Duration), Valid: song.Duration > 0},
		nullString(song.CategoryID),
		structure,
		nullString(song.Lyrics),
		song.CreatedAt,
		song.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	return nil
}

// Get retrieves a song by ID with its category joined, excluding soft-deleted songs
func (r *SongRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	query := "SELECT " + songJoinColumns + songFrom + " WHERE s.id = ? AND s.deleted_at IS NULL"

	var f songFields
	if err := f.scan(r.db.QueryRowContext(ctx, query, id)); err != nil {
		return nil, notFound(err, "song", id)
	}
	return f.song()
}

// Update modifies an existing song in the database
func (r *SongRepository) Update(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	structure, err := encodeJSON(song.LyricsStructure)
	if err != nil {
		return fmt.Errorf("failed to encode lyrics structure: %w", err)
	}

	song.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE songs
		SET title = ?, title_folded = ?, musical_key = ?, audio_url = ?, video_url = ?, duration = ?, category_id = ?,
			lyrics_structure = ?, lyrics = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		song.Title,
		shared.Fold(song.Title),
		nullString(song.Key),
		nullString(song.AudioURL),
		nullString(song.VideoURL),
		sql.NullInt64{Int64: int64(song.Duration), Valid: song.Duration > 0},
		nullString(song.CategoryID),
		structure,
		nullString(song.Lyrics),
		song.UpdatedAt,
		song.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}

	return expectRows(result, "song", song.ID)
}

// Delete soft-deletes a song by ID. Program entries that reference it are skipped when rendered.
func (r *SongRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE songs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	return expectRows(result, "song", id)
}

// List retrieves songs ordered by title, excluding soft-deleted songs.
//
// Supported criteria:
//   - "category_id" (string): only songs in that category
//   - "category" (string): only songs whose category has that slug
//   - "query" (string): accent and case insensitive title search
//   - "ids" ([]string): only these songs
func (r *SongRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Song, error) {
	query := "SELECT " + songJoinColumns + songFrom + " WHERE s.deleted_at IS NULL"
	args := []any{}

	if categoryID, ok := criteria["category_id"].(string); ok && categoryID != "" {
		query += " AND s.category_id = ?"
		args = append(args, categoryID)
	}

	if slug, ok := criteria["category"].(string); ok && slug != "" {
		query += " AND c.slug = ?"
		args = append(args, slug)
	}

	if q, ok := criteria["query"].(string); ok && q != "" {
		query += " AND s.title_folded LIKE ? ESCAPE '\\'"
		args = append(args, "%"+escapeLike(shared.Fold(q))+"%")
	}

	if ids, ok := criteria["ids"].([]string); ok {
		if len(ids) == 0 {
			return nil, nil
		}
		query += " AND s.id IN (" + placeholders(len(ids)) + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}

	query += " ORDER BY s.title_folded ASC, s.sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		var f songFields
		if err := f.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		song, err := f.song()
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// songFields holds the nullable scan targets of [songJoinColumns].
type songFields struct {
	id, title, key, audioURL, videoURL, categoryID sql.NullString
	structure, lyrics                              sql.NullString
	sequence, duration                             sql.NullInt64
	createdAt, updatedAt, deletedAt                sql.NullTime
	catID, catName, catSlug                        sql.NullString
	catOrder                                       sql.NullInt64
}

func (f *songFields) targets() []any {
	return []any{
		&f.id, &f.sequence, &f.title, &f.key, &f.audioURL, &f.videoURL, &f.duration, &f.categoryID,
		&f.structure, &f.lyrics, &f.createdAt, &f.updatedAt, &f.deletedAt,
		&f.catID, &f.catName, &f.catSlug, &f.catOrder,
	}
}

func (f *songFields) scan(s scanner) error {
	return s.Scan(f.targets()...)
}

// song builds the model, or returns nil when the join found no live song.
func (f *songFields) song() (*models.Song, error) {
	if !f.id.Valid || f.deletedAt.Valid {
		return nil, nil
	}

	structure, err := decodeJSON[models.LyricsPart](f.structure)
	if err != nil {
		return nil, fmt.Errorf("failed to decode lyrics structure of song %s: %w", f.id.String, err)
	}

	song := &models.Song{
		ID:              f.id.String,
		Sequence:        int(f.sequence.Int64),
		Title:           f.title.String,
		Key:             f.key.String,
		AudioURL:        f.audioURL.String,
		VideoURL:        f.videoURL.String,
		Duration:        int(f.duration.Int64),
		CategoryID:      f.categoryID.String,
		LyricsStructure: structure,
		Lyrics:          f.lyrics.String,
		CreatedAt:       f.createdAt.Time,
		UpdatedAt:       f.updatedAt.Time,
		DeletedAt:       timePtr(f.deletedAt),
	}

	if f.catID.Valid {
		song.Category = &models.Category{
			ID:         f.catID.String,
			Name:       f.catName.String,
			Slug:       f.catSlug.String,
			OrderIndex: int(f.catOrder.Int64),
		}
	}

	return song, nil
}
