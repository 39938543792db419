package auth

import "context"

// Provider is the session controller's view of the identity provider: the
// two browser redirects it can build and the two token exchanges the
// backend performs on its behalf.
type Provider interface {
	AuthCodeURL() string
	LogoutURL(idTokenHint string) string

	ExchangeCode(ctx context.Context, code, currentPath string) (*TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)
}
