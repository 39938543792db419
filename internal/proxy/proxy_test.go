package proxy_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marcogenualdo/sso-session/internal/proxy"
	"github.com/marcogenualdo/sso-session/internal/roles"
	"github.com/marcogenualdo/sso-session/internal/store"
	"github.com/stretchr/testify/require"
)

type staticCapability struct {
	roles roles.Set
}

func (c staticCapability) IsAuthenticated() bool      { return true }
func (c staticCapability) Roles() roles.Set           { return c.roles }
func (c staticCapability) Loading() bool              { return false }
func (c staticCapability) HasRole(name string) bool   { return c.roles.Has(name) }
func (c staticCapability) Login(ctx context.Context)  {}
func (c staticCapability) Logout(ctx context.Context) {}

func TestReverseProxy(t *testing.T) {
	var gotAuth, gotRoles, gotPath string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRoles = r.Header.Get(proxy.RolesHeader)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	st := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rp, err := proxy.NewReverseProxy(api.URL, st, staticCapability{roles: roles.FilterUseful([]string{"user", "admin"})}, logger)
	require.NoError(t, err)

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rp.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("forwards with session credentials", func(t *testing.T) {
		require.NoError(t, st.Set(context.Background(), store.KeyAccessToken, "access-1"))

		req := httptest.NewRequest(http.MethodGet, "/api/templates", nil)
		req.Header.Set("Authorization", "Bearer forged")
		req.Header.Set(proxy.RolesHeader, "superuser")

		rec := httptest.NewRecorder()
		rp.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Bearer access-1", gotAuth)
		require.Equal(t, "admin,user", gotRoles)
		require.Equal(t, "/api/templates", gotPath)
	})
}

func TestReverseProxy_BackendDown(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Set(context.Background(), store.KeyAccessToken, "a"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rp, err := proxy.NewReverseProxy("http://127.0.0.1:1", st, staticCapability{}, logger)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	rp.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/x", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}
