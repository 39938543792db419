package middleware

import (
	"log/slog"
	"net/http"

	"github.com/marcogenualdo/sso-session/internal/session"
)

type AuthMiddleware struct {
	capability session.Capability
	logger     *slog.Logger
}

func NewAuthMiddleware(capability session.Capability, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		capability: capability,
		logger:     logger,
	}
}

// RequireAuth lets a request through only while the session is authenticated.
func (am *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !am.capability.IsAuthenticated() {
			am.logger.Debug("rejecting request without session", "path", r.URL.Path)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole additionally demands role for requests with one of methods.
// Requests with other methods only need a session.
func (am *AuthMiddleware) RequireRole(role string, methods ...string) func(http.Handler) http.Handler {
	gated := make(map[string]bool, len(methods))
	for _, m := range methods {
		gated[m] = true
	}

	return func(next http.Handler) http.Handler {
		return am.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gated[r.Method] && !am.capability.HasRole(role) {
				am.logger.Info("role required",
					"role", role,
					"method", r.Method,
					"path", r.URL.Path,
				)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}
