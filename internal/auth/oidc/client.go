package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/config"
	"golang.org/x/oauth2"
)

var ErrUnexpectedStatus = errors.New("unexpected status from token backend")

// Client builds the realm's browser redirects and calls the token backend for
// the code and refresh exchanges.
type Client struct {
	oauth2Config          oauth2.Config
	endpoints             Endpoints
	postLogoutRedirectURI string
	backendURL            string
	httpClient            *http.Client
}

var _ auth.Provider = (*Client)(nil)

func NewClient(idpCfg config.IdPConfig, sessionCfg config.SessionConfig, httpClient *http.Client) *Client {
	endpoints := NewEndpoints(idpCfg.BaseURL(), idpCfg.Realm)

	if httpClient == nil {
		httpClient = &http.Client{Timeout: sessionCfg.Timeout}
	}

	return &Client{
		oauth2Config: oauth2.Config{
			ClientID:    idpCfg.ClientID,
			RedirectURL: idpCfg.RedirectURI,
			Scopes:      []string{"openid"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  endpoints.Auth(),
				TokenURL: endpoints.Token(),
			},
		},
		endpoints:             endpoints,
		postLogoutRedirectURI: idpCfg.PostLogoutRedirectURI,
		backendURL:            strings.TrimRight(sessionCfg.BackendURL, "/"),
		httpClient:            httpClient,
	}
}

// AuthCodeURL carries no state parameter: the callback is matched by the
// redirect URI alone.
func (c *Client) AuthCodeURL() string {
	return c.oauth2Config.AuthCodeURL("")
}

func (c *Client) LogoutURL(idTokenHint string) string {
	v := url.Values{}
	v.Set("id_token_hint", idTokenHint)
	v.Set("post_logout_redirect_uri", c.postLogoutRedirectURI)
	return c.endpoints.Logout() + "?" + v.Encode()
}

func (c *Client) ExchangeCode(ctx context.Context, code, currentPath string) (*auth.TokenSet, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("currentPath", currentPath)

	tokens, err := c.post(ctx, "/token", form)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return tokens, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*auth.TokenSet, error) {
	form := url.Values{}
	form.Set("refreshToken", refreshToken)

	tokens, err := c.post(ctx, "/token/refresh", form)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return tokens, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (*auth.TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.backendURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var tokens auth.TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &tokens, nil
}
