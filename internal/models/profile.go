package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/cantus/internal/shared"
)

// Role controls what a profile may edit.
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", shared.ErrInvalidInput, s)
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	return slices.Contains(roles, r)
}

// Profile mirrors an authenticated identity. Its ID is the identity provider's subject.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName falls back to the email when no full name is known.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.Email
}

// Validate checks the email and role.
func (p *Profile) Validate() error {
	if !strings.Contains(p.Email, "@") {
		return fmt.Errorf("%w: email %q is invalid", shared.ErrInvalidInput, p.Email)
	}
	if p.Role == "" {
		p.Role = RoleUser
	}
	if _, err := ParseRole(string(p.Role)); err != nil {
		return err
	}
	return nil
}

// Favorite is an existence-only bookmark of a song by a user.
type Favorite struct {
	UserID    string    `json:"user_id"`
	SongID    string    `json:"song_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a server-side login token bound to a profile.
type Session struct {
	Token     string    `json:"-"`
	ProfileID string    `json:"profile_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
