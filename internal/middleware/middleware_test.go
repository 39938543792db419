package middleware_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marcogenualdo/sso-session/internal/middleware"
	"github.com/marcogenualdo/sso-session/internal/roles"
	"github.com/stretchr/testify/require"
)

type fakeCapability struct {
	authenticated bool
	roles         roles.Set
}

func (f fakeCapability) IsAuthenticated() bool      { return f.authenticated }
func (f fakeCapability) Roles() roles.Set           { return f.roles }
func (f fakeCapability) Loading() bool              { return false }
func (f fakeCapability) HasRole(name string) bool   { return f.roles.Has(name) }
func (f fakeCapability) Login(ctx context.Context)  {}
func (f fakeCapability) Logout(ctx context.Context) {}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		cap    fakeCapability
		method string
		want   int
	}{
		{name: "no session", cap: fakeCapability{}, method: http.MethodGet, want: http.StatusUnauthorized},
		{name: "user reads", cap: fakeCapability{authenticated: true, roles: roles.FilterUseful([]string{"user"})}, method: http.MethodGet, want: http.StatusNoContent},
		{name: "user writes", cap: fakeCapability{authenticated: true, roles: roles.FilterUseful([]string{"user"})}, method: http.MethodPost, want: http.StatusForbidden},
		{name: "admin writes", cap: fakeCapability{authenticated: true, roles: roles.FilterUseful([]string{"admin"})}, method: http.MethodDelete, want: http.StatusNoContent},
		{name: "no session writes", cap: fakeCapability{roles: roles.FilterUseful([]string{"admin"})}, method: http.MethodPost, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			am := middleware.NewAuthMiddleware(tt.cap, discard())
			h := am.RequireRole(roles.Admin, http.MethodPost, http.MethodPut, http.MethodDelete)(ok)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/templates", nil))
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLogging_RequestID(t *testing.T) {
	h := middleware.Logging(discard())(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
