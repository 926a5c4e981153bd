package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
)

const (
	SessionCookie = "cantus_session"
	StateCookie   = "cantus_oauth_state"
)

// SessionStore persists session tokens. Implemented by repositories.SessionRepository.
type SessionStore interface {
	Create(ctx context.Context, profileID string, ttl time.Duration) (*models.Session, error)
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

// Sessions issues and reads login sessions.
type Sessions struct {
	store  SessionStore
	ttl    time.Duration
	secure bool
}

// NewSessions creates a session manager. Cookies are marked Secure when secure is set.
func NewSessions(store SessionStore, ttl time.Duration, secure bool) *Sessions {
	return &Sessions{store: store, ttl: ttl, secure: secure}
}

// Start creates a session for profileID and sets the HttpOnly session cookie.
func (s *Sessions) Start(ctx context.Context, w http.ResponseWriter, profileID string) (*models.Session, error) {
	sess, err := s.store.Create(ctx, profileID, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	return sess, nil
}

// Read returns the live session carried by r.
//
// The Authorization header wins over the cookie. Unknown and expired tokens are reported as
// [shared.ErrNotAuthenticated].
func (s *Sessions) Read(r *http.Request) (*models.Session, error) {
	token := requestToken(r)
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	sess, err := s.store.Get(r.Context(), token)
	switch {
	case err == nil:
		return sess, nil
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrSessionExpired):
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	default:
		return nil, err
	}
}

// End deletes the session carried by r, if any, and clears the cookie.
func (s *Sessions) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	clearCookie(w, SessionCookie, s.secure)
	token := requestToken(r)
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, token)
}

// SetState stores the OAuth state in a short-lived cookie.
func (s *Sessions) SetState(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((10 * time.Minute).Seconds()),
	})
}

// CheckState compares the state query parameter with the state cookie and clears the cookie.
func (s *Sessions) CheckState(w http.ResponseWriter, r *http.Request) error {
	c, err := r.Cookie(StateCookie)
	clearCookie(w, StateCookie, s.secure)
	if err != nil || c.Value == "" {
		return fmt.Errorf("%w: missing state cookie", shared.ErrAuthFailed)
	}
	if r.URL.Query().Get("state") != c.Value {
		return fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)
	}
	return nil
}

func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func clearCookie(w http.ResponseWriter, name string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     cookiePath(name),
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   -1,
	})
}

func cookiePath(name string) string {
	if name == StateCookie {
		return "/auth"
	}
	return "/"
}
