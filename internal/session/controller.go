package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/config"
	"github.com/marcogenualdo/sso-session/internal/store"
)

// Navigator is the page the session lives in.
type Navigator interface {
	Location() *url.URL
	// Navigate leaves the page for target.
	Navigate(ctx context.Context, target string) error
	// Replace rewrites the current location without a new history entry.
	Replace(target string)
}

// Authorization-callback parameters never belong to a saved deep link.
var callbackParams = []string{"code", "state", "session_state", "iss"}

type Controller struct {
	store    store.Store
	provider auth.Provider
	nav      Navigator
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu           sync.Mutex
	state        State
	lastNotified State
	subscribers  []func(State)

	refreshMu     sync.Mutex
	cancelRefresh context.CancelFunc
	refreshDone   chan struct{}
	closed        bool
}

type Option func(*Controller)

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func NewController(cfg config.SessionConfig, st store.Store, provider auth.Provider, nav Navigator, logger *slog.Logger, opts ...Option) *Controller {
	initial := State{Phase: PhaseUninitialized, Loading: true}

	c := &Controller{
		store:        st,
		provider:     provider,
		nav:          nav,
		interval:     cfg.RefreshInterval,
		logger:       logger,
		now:          time.Now,
		state:        initial,
		lastNotified: initial,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start initializes the session for the current page and makes sure the
// refresh task is running.
func (c *Controller) Start(ctx context.Context) {
	c.Initialize(ctx)
	c.startRefresh()
}

// Initialize runs once per page load.
func (c *Controller) Initialize(ctx context.Context) {
	c.dispatch(ctx, Mounted{
		AccessToken: c.lookup(ctx, store.KeyAccessToken),
		StoredRoles: c.storedRoles(ctx),
		Code:        c.nav.Location().Query().Get("code"),
		Now:         c.now(),
	})
}

// Refresh renews the tokens of an authenticated session.
//
// Precondition: the session is authenticated. In any other phase the
// operation in progress owns the session and Refresh does nothing, even when
// no refresh token is stored.
func (c *Controller) Refresh(ctx context.Context) {
	c.dispatch(ctx, RefreshTicked{RefreshToken: c.lookup(ctx, store.KeyRefreshToken)})
}

func (c *Controller) Login(ctx context.Context) {
	c.dispatch(ctx, LoginRequested{})
}

func (c *Controller) Logout(ctx context.Context) {
	c.stopRefresh()
	c.dispatch(ctx, LogoutRequested{IDToken: c.lookup(ctx, store.KeyIDToken)})
}

// Close stops the refresh task and waits for it to exit.
func (c *Controller) Close() {
	c.refreshMu.Lock()
	c.closed = true
	c.refreshMu.Unlock()

	c.stopRefresh()
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Roles = s.Roles.Clone()
	return s
}

// Subscribe registers fn to receive every state change.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subscribers = append(c.subscribers, fn)
}

func (c *Controller) dispatch(ctx context.Context, ev Event) {
	c.mu.Lock()
	next, effects := Reduce(c.state, ev)
	c.state = next
	c.mu.Unlock()

	for _, eff := range effects {
		c.apply(ctx, eff)
	}

	c.notify()
}

func (c *Controller) notify() {
	c.mu.Lock()
	if c.state.equal(c.lastNotified) {
		c.mu.Unlock()
		return
	}
	s := c.state
	s.Roles = s.Roles.Clone()
	c.lastNotified = s
	subs := append([]func(State){}, c.subscribers...)
	c.mu.Unlock()

	c.logger.Debug("session state changed",
		"phase", s.Phase.String(),
		"loading", s.Loading,
		"roles", s.Roles.Sorted(),
	)

	for _, fn := range subs {
		fn(s)
	}
}

func (c *Controller) apply(ctx context.Context, eff Effect) {
	switch eff := eff.(type) {
	case ClearStore:
		c.clearStore(ctx, eff.KeepDeepLink)
	case PersistTokens:
		c.persist(ctx, eff)
	case RestoreDeepLink:
		c.restoreDeepLink(ctx)
	case ExchangeCode:
		c.exchangeCode(ctx, eff)
	case RefreshTokens:
		c.refreshTokens(ctx, eff)
	case RedirectToIdp:
		if eff.Reason != nil {
			c.logger.Warn("session ended", "reason", eff.Reason)
		}
		c.redirectToIdp(ctx)
	case NavigateLogout:
		c.logger.Info("logging out")
		c.navigate(ctx, c.provider.LogoutURL(eff.IDToken))
	}
}

// exchangeCode always settles: the code is single-use, so a caller giving up
// must not leave the session exchanging. The provider's client timeout bounds
// the call.
func (c *Controller) exchangeCode(ctx context.Context, eff ExchangeCode) {
	ctx = context.WithoutCancel(ctx)

	tokens, err := c.provider.ExchangeCode(ctx, eff.Code, c.nav.Location().Path)
	c.dispatch(ctx, CodeExchanged{Generation: eff.Generation, Tokens: tokens, Err: err})
}

func (c *Controller) refreshTokens(ctx context.Context, eff RefreshTokens) {
	tokens, err := c.provider.Refresh(ctx, eff.RefreshToken)
	if ctx.Err() != nil {
		c.logger.Debug("discarding refresh result", "error", ctx.Err())
		return
	}
	c.dispatch(ctx, Refreshed{Generation: eff.Generation, Tokens: tokens, Err: err})
}

func (c *Controller) redirectToIdp(ctx context.Context) {
	if q := deepLinkQuery(c.nav.Location()); q != "" {
		if err := c.store.Set(ctx, store.KeySavedDeepLink, q); err != nil {
			c.logger.Error("failed to save deep link", "error", err)
		}
	}
	c.navigate(ctx, c.provider.AuthCodeURL())
}

func (c *Controller) restoreDeepLink(ctx context.Context) {
	saved := c.lookup(ctx, store.KeySavedDeepLink)
	if saved == "" {
		return
	}

	if err := c.store.Delete(ctx, store.KeySavedDeepLink); err != nil {
		c.logger.Error("failed to delete deep link", "error", err)
	}

	c.nav.Replace(c.nav.Location().Path + saved)
}

func (c *Controller) navigate(ctx context.Context, target string) {
	if err := c.nav.Navigate(ctx, target); err != nil {
		c.logger.Error("navigation failed", "error", err)
	}
}

func (c *Controller) persist(ctx context.Context, eff PersistTokens) {
	values := []struct {
		key   store.Key
		value string
	}{
		{store.KeyAccessToken, eff.Tokens.AccessToken},
		{store.KeyRefreshToken, eff.Tokens.RefreshToken},
		{store.KeyIDToken, eff.Tokens.IDToken},
	}

	for _, v := range values {
		if v.value == "" {
			continue
		}
		if err := c.store.Set(ctx, v.key, v.value); err != nil {
			c.logger.Error("failed to persist token", "key", string(v.key), "error", err)
		}
	}

	if eff.Roles == nil {
		return
	}

	data, err := json.Marshal(eff.Roles.Sorted())
	if err != nil {
		c.logger.Error("failed to marshal roles", "error", err)
		return
	}
	if err := c.store.Set(ctx, store.KeyRoles, string(data)); err != nil {
		c.logger.Error("failed to persist roles", "error", err)
	}
}

func (c *Controller) clearStore(ctx context.Context, keepDeepLink bool) {
	saved := ""
	if keepDeepLink {
		saved = c.lookup(ctx, store.KeySavedDeepLink)
	}

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("failed to clear token store", "error", err)
	}

	if saved != "" {
		if err := c.store.Set(ctx, store.KeySavedDeepLink, saved); err != nil {
			c.logger.Error("failed to keep deep link", "error", err)
		}
	}
}

// lookup returns "" for absent keys and for store failures, which the
// session treats the same way.
func (c *Controller) lookup(ctx context.Context, key store.Key) string {
	value, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Error("failed to read token store", "key", string(key), "error", err)
		}
		return ""
	}
	return value
}

func (c *Controller) storedRoles(ctx context.Context) []string {
	raw := c.lookup(ctx, store.KeyRoles)
	if raw == "" {
		return nil
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		c.logger.Warn("ignoring malformed stored roles", "error", err)
		return nil
	}
	return list
}

// deepLinkQuery returns the query of u to restore after sign-in, with the
// authorization-callback parameters removed. The remaining parameters keep
// their order and encoding.
func deepLinkQuery(u *url.URL) string {
	if u == nil || u.RawQuery == "" {
		return ""
	}

	segments := strings.Split(u.RawQuery, "&")
	var kept []string
	stripped := false
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if isCallbackParam(seg) {
			stripped = true
			continue
		}
		kept = append(kept, seg)
	}

	if !stripped {
		return "?" + u.RawQuery
	}
	if len(kept) == 0 {
		return ""
	}
	return "?" + strings.Join(kept, "&")
}

func isCallbackParam(segment string) bool {
	name, _, _ := strings.Cut(segment, "=")
	if unescaped, err := url.QueryUnescape(name); err == nil {
		name = unescaped
	}
	return slices.Contains(callbackParams, name)
}
