// Package store persists the tokens, role set and saved deep link of a
// session. It performs no validation; callers interpret ErrNotFound and empty
// values as absence.
package store

import (
	"context"
	"errors"

	"github.com/marcogenualdo/sso-session/internal/config"
)

var ErrNotFound = errors.New("key not found")

type Key string

const (
	KeyAccessToken   Key = "token"
	KeyRefreshToken  Key = "refresh_token"
	KeyIDToken       Key = "id_token"
	KeyRoles         Key = "roles"
	KeySavedDeepLink Key = "savedQueryParams"
)

// Keys lists every key a store may hold.
var Keys = []Key{KeyAccessToken, KeyRefreshToken, KeyIDToken, KeyRoles, KeySavedDeepLink}

type Store interface {
	Get(ctx context.Context, key Key) (string, error)
	Set(ctx context.Context, key Key, value string) error
	Delete(ctx context.Context, key Key) error
	// Clear removes every key. No reader observes a partially cleared store.
	Clear(ctx context.Context) error
	Close() error
}

func New(cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		if cfg.Redis == nil {
			return nil, errors.New("redis config is required for redis store type")
		}
		return NewRedisStore(*cfg.Redis, cfg.Namespace)
	default:
		return nil, errors.New("unsupported store type: " + cfg.Type)
	}
}
