package session

import (
	"errors"

	"github.com/marcogenualdo/sso-session/internal/auth/token"
)

// Every error below ends the session and sends the user back to the identity
// provider. None is retried.
var (
	ErrInvalidToken        = token.ErrInvalidToken
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrRefreshRejected     = errors.New("refresh rejected")
	ErrCodeExchangeFailed  = errors.New("code exchange failed")
)
