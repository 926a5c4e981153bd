package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cantus/internal/models"
)

// FavoriteRepository stores existence-only (user, song) pairs.
//
// It satisfies favorites.Store.
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new FavoriteRepository with the given database connection
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Exists reports whether userID has favorited songID.
func (r *FavoriteRepository) Exists(ctx context.Context, userID, songID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = ? AND song_id = ?)", userID, songID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

// Add records the favorite. Adding twice is a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, userID, songID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO favorites (user_id, song_id, created_at) VALUES (?, ?, ?) ON CONFLICT(user_id, song_id) DO NOTHING",
		userID, songID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove deletes the favorite. Removing a missing favorite is a no-op.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, songID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM favorites WHERE user_id = ? AND song_id = ?", userID, songID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// ListSongs returns the live songs favorited by userID, most recent first.
func (r *FavoriteRepository) ListSongs(ctx context.Context, userID string) ([]*models.Song, error) {
	query := "SELECT " + songJoinColumns + `
		FROM favorites f
		JOIN songs s ON s.id = f.song_id AND s.deleted_at IS NULL
		LEFT JOIN categories c ON c.id = s.category_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		var f songFields
		if err := f.scan(rows); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
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
