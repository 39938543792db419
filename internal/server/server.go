package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/internal/handlers"
)

const shutdownTimeout = 30 * time.Second

// Server is the token backend.
type Server struct {
	cfg       config.Config
	exchanger handlers.TokenExchanger
	logger    *slog.Logger
}

func New(cfg config.Config, exchanger handlers.TokenExchanger, logger *slog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		exchanger: exchanger,
		logger:    logger,
	}
}

// Run serves until ctx is cancelled, then drains in-flight grants.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting token backend",
			"addr", httpServer.Addr,
			"realm", s.cfg.IdP.Realm,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down token backend")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}
