package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/cantus/internal/auth"
	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
)

// loginResponse is returned by the callback to clients that ask for JSON, so they can use a Bearer token.
type loginResponse struct {
	Profile   *models.Profile `json:"profile"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// login redirects to the provider's consent page. The state is kept in a cookie for the callback.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		s.writeError(w, r, fmt.Errorf("%w: no identity provider configured", shared.ErrServiceUnavailable))
		return
	}

	state := auth.NewState()
	s.sessions.SetState(w, state)
	http.Redirect(w, r, s.provider.AuthCodeURL(state), http.StatusFound)
}

// callback validates the state, exchanges the code and starts a session.
//
// First logins create a profile with the user role. Later logins refresh name, email and avatar
// but never the role.
func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		s.writeError(w, r, fmt.Errorf("%w: no identity provider configured", shared.ErrServiceUnavailable))
		return
	}

	if err := s.sessions.CheckState(w, r); err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))
		s.writeError(w, r, err)
		return
	}

	id, err := s.provider.Exchange(r.Context(), code)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	profile := id.Profile()
	if err := s.profiles.Upsert(r.Context(), profile, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := s.sessions.Start(r.Context(), w, profile.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("signed in", "email", profile.Email, "role", profile.Role, "provider", s.provider.Name())

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, loginResponse{Profile: profile, Token: sess.Token, ExpiresAt: sess.ExpiresAt})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, signedInPage)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.End(r.Context(), w, r); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

const signedInPage = `<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="utf-8">
    <title>Connexion réussie</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #7c3aed; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Connexion réussie</h1>
        <p>Vous pouvez fermer cette fenêtre.</p>
    </div>
</body>
</html>
`
