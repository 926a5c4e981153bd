package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/cantus/internal/models"
)

// ProfileRepository persists profiles. The ID is supplied by the identity provider, not generated here.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new ProfileRepository with the given database connection
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = "id, email, full_name, avatar_url, role, created_at, updated_at"

// Upsert inserts the profile or refreshes email, name and avatar of an existing one.
//
// The stored role is kept on conflict unless keepRole is false.
func (r *ProfileRepository) Upsert(ctx context.Context, p *models.Profile, keepRole bool) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))

	roleClause := "role = excluded.role,"
	if keepRole {
		roleClause = ""
	}

	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			full_name = COALESCE(excluded.full_name, profiles.full_name),
			avatar_url = COALESCE(excluded.avatar_url, profiles.avatar_url),
			` + roleClause + `
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Email, nullString(p.FullName), nullString(p.AvatarURL), string(p.Role), now, now,
	)
	if err != nil {
		return conflict(err, "failed to upsert profile %s", p.Email)
	}

	stored, err := r.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Get retrieves a profile by ID
func (r *ProfileRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profiles WHERE id = ?", id))
	if err != nil {
		return nil, notFound(err, "profile", id)
	}
	return p, nil
}

// GetByEmail retrieves a profile by its email, case-insensitively
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	p, err := scanProfile(r.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profiles WHERE email = ?", email))
	if err != nil {
		return nil, notFound(err, "profile", email)
	}
	return p, nil
}

// UpdateDetails changes the display name and avatar.
func (r *ProfileRepository) UpdateDetails(ctx context.Context, id, fullName, avatarURL string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE profiles SET full_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?",
		nullString(fullName), nullString(avatarURL), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectRows(result, "profile", id)
}

// UpdateRole changes the role of a profile.
func (r *ProfileRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	if _, err := models.ParseRole(string(role)); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		"UPDATE profiles SET role = ?, updated_at = ? WHERE id = ?",
		string(role), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return expectRows(result, "profile", id)
}

// List returns all profiles ordered by full name, unnamed profiles last.
func (r *ProfileRepository) List(ctx context.Context) ([]*models.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+profileColumns+" FROM profiles ORDER BY full_name IS NULL, full_name COLLATE NOCASE ASC, email ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return profiles, nil
}

func scanProfile(s scanner) (*models.Profile, error) {
	var (
		p         models.Profile
		fullName  sql.NullString
		avatarURL sql.NullString
		role      string
	)
	if err := s.Scan(&p.ID, &p.Email, &fullName, &avatarURL, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.FullName = fullName.String
	p.AvatarURL = avatarURL.String
	p.Role = models.Role(role)
	return &p, nil
}
