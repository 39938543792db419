package store_test

import (
	"context"
	"testing"

	"github.com/marcogenualdo/sso-session/internal/store"
	"github.com/stretchr/testify/require"
)

// testStoreBehaviour runs the contract every Store backend shares against an
// empty s.
func testStoreBehaviour(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := s.Get(ctx, store.KeyAccessToken)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, store.KeyAccessToken, "abc"))
		got, err := s.Get(ctx, store.KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "abc", got)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, store.KeyRefreshToken, "r1"))
		require.NoError(t, s.Set(ctx, store.KeyRefreshToken, "r2"))
		got, err := s.Get(ctx, store.KeyRefreshToken)
		require.NoError(t, err)
		require.Equal(t, "r2", got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, store.KeySavedDeepLink, "?foo=1"))
		require.NoError(t, s.Delete(ctx, store.KeySavedDeepLink))
		_, err := s.Get(ctx, store.KeySavedDeepLink)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete missing key", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, store.KeyIDToken))
	})

	t.Run("clear removes every key", func(t *testing.T) {
		for _, k := range store.Keys {
			require.NoError(t, s.Set(ctx, k, "v"))
		}
		require.NoError(t, s.Clear(ctx))
		for _, k := range store.Keys {
			_, err := s.Get(ctx, k)
			require.ErrorIs(t, err, store.ErrNotFound, "key %s", k)
		}
	})

	t.Run("clear on empty store", func(t *testing.T) {
		require.NoError(t, s.Clear(ctx))
	})
}
