// Package auth signs members in through a hosted OAuth2/OIDC provider and keeps them signed in with
// server-side sessions.
//
// [Provider] runs the authorization code flow and resolves the userinfo claims into an [Identity].
// [Sessions] issues opaque tokens stored in the sessions table and reads them back from either the
// session cookie or an Authorization: Bearer header.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/cantus/internal/models"
	"github.com/desertthunder/cantus/internal/shared"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Identity is the subset of OIDC userinfo claims cantus keeps.
type Identity struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Profile converts the identity into a profile with the default role.
func (i *Identity) Profile() *models.Profile {
	return &models.Profile{
		ID:        i.Subject,
		Email:     i.Email,
		FullName:  i.Name,
		AvatarURL: i.Picture,
		Role:      models.RoleUser,
	}
}

// Provider wraps an [oauth2.Config] and the provider's userinfo endpoint.
type Provider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
}

// NewProvider builds a provider from the [auth] config section.
func NewProvider(cfg shared.AuthConfig) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if cfg.AuthURL == "" || cfg.TokenURL == "" || cfg.UserInfoURL == "" {
		return nil, fmt.Errorf("%w: auth_url, token_url and userinfo_url are required", shared.ErrInvalidConfig)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}

	return &Provider{
		name: cfg.Provider,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
	}, nil
}

// Name returns the configured provider label.
func (p *Provider) Name() string {
	return p.name
}

// AuthCodeURL returns the consent page URL for state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token and fetches the userinfo claims with it.
//
// An HTTP client stored in ctx under [oauth2.HTTPClient] is used for both calls.
func (p *Provider) Exchange(ctx context.Context, code string) (*Identity, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", shared.ErrAuthFailed)
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo request failed: %v", shared.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: userinfo returned status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	var id Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if id.Subject == "" || id.Email == "" {
		return nil, fmt.Errorf("%w: userinfo is missing sub or email", shared.ErrAuthFailed)
	}
	return &id, nil
}

// NewState returns a random value for the state parameter.
func NewState() string {
	return uuid.NewString()
}

type ctxKeyProfile struct{}

// WithProfile stores the signed-in profile in ctx.
func WithProfile(ctx context.Context, p *models.Profile) context.Context {
	return context.WithValue(ctx, ctxKeyProfile{}, p)
}

// ProfileFromContext returns the signed-in profile, if any.
func ProfileFromContext(ctx context.Context) (*models.Profile, bool) {
	p, ok := ctx.Value(ctxKeyProfile{}).(*models.Profile)
	return p, ok && p != nil
}
