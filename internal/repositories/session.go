package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
)

// SessionRepository stores login tokens.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create issues a random token for profileID valid for ttl.
func (r *SessionRepository) Create(ctx context.Context, profileID string, ttl time.Duration) (*models.Session, error) {
	now := time.Now().UTC()
	s := &models.Session{
		Token:     shared.GenerateID(),
		ProfileID: profileID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (token, profile_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		s.Token, s.ProfileID, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return s, nil
}

// Get returns a session that has not expired.
func (r *SessionRepository) Get(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	err := r.db.QueryRowContext(ctx,
		"SELECT token, profile_id, expires_at, created_at FROM sessions WHERE token = ?", token,
	).Scan(&s.Token, &s.ProfileID, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, notFound(err, "session", "")
	}
	if s.Expired(time.Now()) {
		return nil, shared.ErrSessionExpired
	}
	return &s, nil
}

// Delete ends a session. Deleting an unknown token is a no-op.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Purge removes expired sessions and returns how many were dropped.
func (r *SessionRepository) Purge(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return result.RowsAffected()
}
