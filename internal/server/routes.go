package server

import (
	"net/http"

	"github.com/marcogenualdo/sso-session/internal/auth/oidc"
	"github.com/marcogenualdo/sso-session/internal/handlers"
	"github.com/marcogenualdo/sso-session/internal/middleware"
)

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	tokenHandler := handlers.NewTokenHandler(s.exchanger, s.logger)

	endpoints := oidc.NewEndpoints(s.cfg.IdP.BackendURL(), s.cfg.IdP.Realm)
	healthHandler := handlers.NewHealthHandler(
		endpoints.Discovery(),
		&http.Client{Timeout: s.cfg.Server.RequestTimeout},
		s.logger,
	)

	mux.HandleFunc("POST /token", tokenHandler.HandleExchange)
	mux.HandleFunc("POST /token/refresh", tokenHandler.HandleRefresh)
	mux.Handle("GET /health", healthHandler)

	return middleware.Recovery(s.logger)(
		middleware.Logging(s.logger)(
			middleware.SecurityHeaders(
				http.MaxBytesHandler(mux, 64<<10),
			),
		),
	)
}
