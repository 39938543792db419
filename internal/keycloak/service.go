// Package keycloak performs the authorization-code and refresh-token grants
// against a realm's token endpoint on behalf of the session controller.
package keycloak

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/auth/oidc"
	"github.com/marcogenualdo/sso-session/internal/auth/token"
	"github.com/marcogenualdo/sso-session/internal/config"
	"golang.org/x/oauth2"
)

var ErrMissingIDToken = errors.New("no id_token in token response")

type Service struct {
	oauth2Config oauth2.Config
	verifier     *gooidc.IDTokenVerifier
	httpClient   *http.Client
	logger       *slog.Logger
}

type Option func(*Service)

// WithVerifier checks every ID token the realm issues with v.
func WithVerifier(v *gooidc.IDTokenVerifier) Option {
	return func(s *Service) {
		s.verifier = v
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) {
		s.httpClient = c
	}
}

// NewService builds the grant client. redirectURL must equal the redirect_uri
// the browser used in the authorization request.
func NewService(ctx context.Context, cfg config.IdPConfig, redirectURL string, logger *slog.Logger, opts ...Option) *Service {
	backend := oidc.NewEndpoints(cfg.BackendURL(), cfg.Realm)
	public := oidc.NewEndpoints(cfg.BaseURL(), cfg.Realm)

	s := &Service{
		oauth2Config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{gooidc.ScopeOpenID},
			Endpoint: oauth2.Endpoint{
				AuthURL:   public.Auth(),
				TokenURL:  backend.Token(),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		logger: logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.verifier == nil && cfg.VerifyIDToken {
		keySet := gooidc.NewRemoteKeySet(s.clientContext(ctx), backend.Certs())
		s.verifier = gooidc.NewVerifier(public.Issuer(), keySet, &gooidc.Config{
			ClientID: cfg.ClientID,
		})
	}

	return s
}

func (s *Service) clientContext(ctx context.Context) context.Context {
	if s.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// ExchangeCode redeems an authorization code. currentPath is the page the
// browser returned to; the grant always uses the configured redirect URL.
func (s *Service) ExchangeCode(ctx context.Context, code, currentPath string) (*auth.TokenSet, error) {
	s.logger.Debug("exchanging authorization code", "current_path", currentPath)

	oauth2Token, err := s.oauth2Config.Exchange(s.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	rawIDToken, _ := oauth2Token.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, ErrMissingIDToken
	}

	if s.verifier != nil {
		if _, err := s.verifier.Verify(ctx, rawIDToken); err != nil {
			return nil, fmt.Errorf("failed to verify ID token: %w", err)
		}
	}

	roles, err := token.RealmRoles(oauth2Token.AccessToken)
	if err != nil {
		s.logger.Warn("unexpected structure in token claims", "error", err)
	}
	if roles == nil {
		roles = []string{}
	}

	return &auth.TokenSet{
		AccessToken:  oauth2Token.AccessToken,
		RefreshToken: oauth2Token.RefreshToken,
		IDToken:      rawIDToken,
		Roles:        roles,
	}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.TokenSet, error) {
	tokenSource := s.oauth2Config.TokenSource(s.clientContext(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
	})

	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	return &auth.TokenSet{
		AccessToken:  newToken.AccessToken,
		RefreshToken: newToken.RefreshToken,
	}, nil
}
