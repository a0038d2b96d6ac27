// File: internal/auth/oauth_service.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/RachitSrivastava96/virasat-setu/internal/config"
	"github.com/RachitSrivastava96/virasat-setu/internal/shared"
)

// GoogleUserInfoURL is the endpoint queried with the exchanged access token.
// Package-level so tests can point it at an httptest server.
var GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// OAuthService drives the Google authorization-code flow. It produces a
// provider assertion; account resolution is the identity service's job.
type OAuthService interface {
	GoogleLoginURL(state string) string
	ExchangeGoogleCode(ctx context.Context, code string) (*shared.ProviderAssertion, error)
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type oauthServiceImpl struct {
	oauthCfg *oauth2.Config
	logger   *zap.Logger
}

// NewOAuthService builds the Google OAuth client from application config.
func NewOAuthService(cfg *config.Config, logger *zap.Logger) OAuthService {
	return &oauthServiceImpl{
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		logger: logger,
	}
}

func (s *oauthServiceImpl) GoogleLoginURL(state string) string {
	return s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeGoogleCode swaps the authorization code for a token, fetches the
// userinfo document, and maps it into a provider assertion.
func (s *oauthServiceImpl) ExchangeGoogleCode(ctx context.Context, code string) (*shared.ProviderAssertion, error) {
	token, err := s.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	client := s.oauthCfg.Client(ctx, token)
	resp, err := client.Get(GoogleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("userinfo endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	if info.Sub == "" || info.Email == "" {
		return nil, fmt.Errorf("userinfo document missing subject or email")
	}

	return &shared.ProviderAssertion{
		SubjectID: info.Sub,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}, nil
}
