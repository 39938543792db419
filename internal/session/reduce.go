package session

import (
	"fmt"
	"time"

	"github.com/marcogenualdo/sso-session/internal/auth"
	"github.com/marcogenualdo/sso-session/internal/auth/token"
	"github.com/marcogenualdo/sso-session/internal/roles"
)

// Event is an input to Reduce. Events carry everything the decision needs, so
// Reduce never touches the store, the clock or the network.
type Event interface{ isEvent() }

// Mounted is a page load, with what the store and the location held.
type Mounted struct {
	AccessToken string
	StoredRoles []string
	Code        string
	Now         time.Time
}

type CodeExchanged struct {
	Generation uint64
	Tokens     *auth.TokenSet
	Err        error
}

type RefreshTicked struct {
	RefreshToken string
}

type Refreshed struct {
	Generation uint64
	Tokens     *auth.TokenSet
	Err        error
}

type LoginRequested struct{}

type LogoutRequested struct {
	IDToken string
}

func (Mounted) isEvent()         {}
func (CodeExchanged) isEvent()   {}
func (RefreshTicked) isEvent()   {}
func (Refreshed) isEvent()       {}
func (LoginRequested) isEvent()  {}
func (LogoutRequested) isEvent() {}

// Effect is a side effect Reduce asks the controller to perform, in order.
type Effect interface{ isEffect() }

// ClearStore empties the token store. KeepDeepLink preserves a saved deep
// link across the clear.
type ClearStore struct {
	KeepDeepLink bool
}

// PersistTokens writes the non-empty tokens, and the roles when Roles is not nil.
type PersistTokens struct {
	Tokens auth.TokenSet
	Roles  roles.Set
}

type RestoreDeepLink struct{}

type ExchangeCode struct {
	Generation uint64
	Code       string
}

type RefreshTokens struct {
	Generation   uint64
	RefreshToken string
}

type RedirectToIdp struct {
	Reason error
}

type NavigateLogout struct {
	IDToken string
}

func (ClearStore) isEffect()      {}
func (PersistTokens) isEffect()   {}
func (RestoreDeepLink) isEffect() {}
func (ExchangeCode) isEffect()    {}
func (RefreshTokens) isEffect()   {}
func (RedirectToIdp) isEffect()   {}
func (NavigateLogout) isEffect()  {}

// Reduce is the session state machine.
func Reduce(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case Mounted:
		return reduceMounted(s, ev)
	case CodeExchanged:
		return reduceCodeExchanged(s, ev)
	case RefreshTicked:
		return reduceRefreshTicked(s, ev)
	case Refreshed:
		return reduceRefreshed(s, ev)
	case LoginRequested:
		s.Phase = PhaseRedirectingToIdp
		s.Generation++
		return s, []Effect{RedirectToIdp{}}
	case LogoutRequested:
		s.Phase = PhaseUnauthenticated
		s.Roles = roles.Set{}
		s.Loading = false
		s.Generation++
		return s, []Effect{ClearStore{}, NavigateLogout{IDToken: ev.IDToken}}
	}
	return s, nil
}

func reduceMounted(s State, ev Mounted) (State, []Effect) {
	s.Phase = PhaseChecking
	s.Loading = true
	s.Roles = roles.Set{}

	if ev.AccessToken != "" {
		if !token.Valid(ev.AccessToken, ev.Now) {
			// A dead session leaves nothing worth keeping, not even an
			// older deep link.
			return endSessionWith(s, ClearStore{}, ErrInvalidToken)
		}
		s.Phase = PhaseAuthenticated
		s.Loading = false
		s.Roles = roles.FilterUseful(ev.StoredRoles)
		return s, nil
	}

	if ev.Code != "" {
		s.Phase = PhaseExchangingCode
		return s, []Effect{ExchangeCode{Generation: s.Generation, Code: ev.Code}}
	}

	return endSession(s, nil)
}

func reduceCodeExchanged(s State, ev CodeExchanged) (State, []Effect) {
	if ev.Generation != s.Generation || s.Phase != PhaseExchangingCode {
		return s, nil
	}

	if ev.Err != nil {
		return endSession(s, fmt.Errorf("%w: %v", ErrCodeExchangeFailed, ev.Err))
	}
	if !ev.Tokens.Complete() {
		return endSession(s, fmt.Errorf("%w: incomplete token set", ErrCodeExchangeFailed))
	}

	filtered := roles.FilterUseful(ev.Tokens.Roles)
	s.Phase = PhaseAuthenticated
	s.Loading = false
	s.Roles = filtered

	return s, []Effect{
		PersistTokens{Tokens: *ev.Tokens, Roles: filtered},
		RestoreDeepLink{},
	}
}

// Ticks only act on an authenticated session: while checking, exchanging or
// redirecting another operation owns the session.
func reduceRefreshTicked(s State, ev RefreshTicked) (State, []Effect) {
	if s.Phase != PhaseAuthenticated {
		return s, nil
	}

	if ev.RefreshToken == "" {
		return endSession(s, ErrMissingRefreshToken)
	}

	return s, []Effect{RefreshTokens{Generation: s.Generation, RefreshToken: ev.RefreshToken}}
}

func reduceRefreshed(s State, ev Refreshed) (State, []Effect) {
	if ev.Generation != s.Generation || s.Phase != PhaseAuthenticated {
		return s, nil
	}

	if ev.Err != nil {
		return endSession(s, fmt.Errorf("%w: %v", ErrRefreshRejected, ev.Err))
	}
	if !ev.Tokens.Renewed() {
		return endSession(s, fmt.Errorf("%w: response lacks new tokens", ErrRefreshRejected))
	}

	return s, []Effect{PersistTokens{Tokens: auth.TokenSet{
		AccessToken:  ev.Tokens.AccessToken,
		RefreshToken: ev.Tokens.RefreshToken,
	}}}
}

// endSession drops the session and sends the user to the identity provider.
// A redirect already pending is not issued again.
func endSession(s State, reason error) (State, []Effect) {
	return endSessionWith(s, ClearStore{KeepDeepLink: true}, reason)
}

func endSessionWith(s State, wipe ClearStore, reason error) (State, []Effect) {
	if s.Phase == PhaseRedirectingToIdp {
		return s, nil
	}

	s.Phase = PhaseRedirectingToIdp
	s.Roles = roles.Set{}
	s.Generation++

	return s, []Effect{wipe, RedirectToIdp{Reason: reason}}
}
