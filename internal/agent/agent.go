// Package agent hosts a session controller behind a local HTTP front: it
// receives the identity provider's redirects, answers with the navigations the
// controller decides on and exposes the session capability.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/internal/middleware"
	"github.com/marcogenualdo/sso-session/internal/proxy"
	"github.com/marcogenualdo/sso-session/internal/roles"
	"github.com/marcogenualdo/sso-session/internal/session"
	"github.com/marcogenualdo/sso-session/internal/store"
	"golang.org/x/sync/errgroup"
)

type Agent struct {
	cfg         config.Config
	redirectURL *url.URL
	browser     *Browser
	ctrl        *session.Controller
	api         http.Handler
	logger      *slog.Logger

	// One page load at a time: the browser has a single location.
	pageMu sync.Mutex
}

func New(cfg config.Config, st store.Store, provider auth.Provider, out io.Writer, logger *slog.Logger, opts ...session.Option) (*Agent, error) {
	redirectURL, err := url.Parse(cfg.IdP.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect_uri: %w", err)
	}

	browser := NewBrowser(redirectURL, out, logger)
	ctrl := session.NewController(cfg.Session, st, provider, browser, logger, opts...)
	ctrl.Subscribe(func(s session.State) {
		logger.Info("session changed",
			"phase", s.Phase.String(),
			"authenticated", s.IsAuthenticated(),
			"roles", s.Roles.Sorted(),
		)
	})

	a := &Agent{
		cfg:         cfg,
		redirectURL: redirectURL,
		browser:     browser,
		ctrl:        ctrl,
		logger:      logger,
	}

	if cfg.Agent.APIURL != "" {
		rp, err := proxy.NewReverseProxy(cfg.Agent.APIURL, st, ctrl, logger)
		if err != nil {
			return nil, fmt.Errorf("invalid api_url: %w", err)
		}
		auth := middleware.NewAuthMiddleware(ctrl, logger)
		a.api = auth.RequireRole(roles.Admin, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)(rp)
	}

	return a, nil
}

// Capability is the session view handed to consumers.
func (a *Agent) Capability() session.Capability {
	return a.ctrl
}

func (a *Agent) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+pagePath(a.redirectURL), a.handlePage)
	mux.HandleFunc("GET /session", a.handleSession)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("POST /logout", a.handleLogout)
	if a.api != nil {
		mux.Handle("/api/", a.api)
	}

	return middleware.Recovery(a.logger)(
		middleware.Logging(a.logger)(
			middleware.SecurityHeaders(mux),
		),
	)
}

// Run serves until ctx is cancelled. The landing page is loaded once up
// front so a stored session resumes, or the sign-in URL is printed.
func (a *Agent) Run(ctx context.Context) error {
	addr := a.cfg.Agent.ListenAddr
	if addr == "" {
		addr = a.redirectURL.Host
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.load(ctx, a.redirectURL)
	a.browser.TakeNavigation()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting session agent", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Close stops the session's refresh task.
func (a *Agent) Close() {
	a.ctrl.Close()
}

func (a *Agent) load(ctx context.Context, u *url.URL) {
	a.browser.Load(u)
	a.ctrl.Start(ctx)
}

func (a *Agent) handlePage(w http.ResponseWriter, r *http.Request) {
	a.pageMu.Lock()
	defer a.pageMu.Unlock()

	loaded := *a.redirectURL
	loaded.Path = r.URL.Path
	loaded.RawQuery = r.URL.RawQuery

	a.load(r.Context(), &loaded)

	if target := a.browser.TakeNavigation(); target != "" {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	if current := a.browser.Location(); current.RequestURI() != loaded.RequestURI() {
		http.Redirect(w, r, current.RequestURI(), http.StatusFound)
		return
	}

	writeJSON(w, http.StatusOK, a.view())
}

func (a *Agent) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.view())
}

func (a *Agent) handleLogin(w http.ResponseWriter, r *http.Request) {
	a.pageMu.Lock()
	defer a.pageMu.Unlock()

	a.ctrl.Login(r.Context())
	a.answerNavigation(w, r)
}

func (a *Agent) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.pageMu.Lock()
	defer a.pageMu.Unlock()

	a.ctrl.Logout(r.Context())
	a.answerNavigation(w, r)
}

func (a *Agent) answerNavigation(w http.ResponseWriter, r *http.Request) {
	if target := a.browser.TakeNavigation(); target != "" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionView struct {
	IsAuthenticated bool     `json:"isAuthenticated"`
	Loading         bool     `json:"loading"`
	Roles           []string `json:"roles"`
	Phase           string   `json:"phase"`
}

func (a *Agent) view() sessionView {
	s := a.ctrl.Snapshot()
	return sessionView{
		IsAuthenticated: s.IsAuthenticated(),
		Loading:         s.Loading,
		Roles:           s.Roles.Sorted(),
		Phase:           s.Phase.String(),
	}
}

func pagePath(u *url.URL) string {
	if u.Path == "" {
		return "/{$}"
	}
	return u.Path
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
