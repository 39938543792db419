package session

import (
	"slices"

	"github.com/marcogenualdo/sso-session/internal/roles"
)

type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseChecking
	PhaseAuthenticated
	PhaseExchangingCode
	PhaseRedirectingToIdp
	PhaseUnauthenticated
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseChecking:
		return "checking"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseExchangingCode:
		return "exchanging_code"
	case PhaseRedirectingToIdp:
		return "redirecting_to_idp"
	case PhaseUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// State is the in-memory session. Generation increases on every teardown;
// asynchronous results started under an older generation are discarded.
type State struct {
	Phase      Phase
	Roles      roles.Set
	Loading    bool
	Generation uint64
}

func (s State) IsAuthenticated() bool {
	return s.Phase == PhaseAuthenticated
}

func (s State) equal(o State) bool {
	return s.Phase == o.Phase &&
		s.Loading == o.Loading &&
		s.Generation == o.Generation &&
		slices.Equal(s.Roles.Sorted(), o.Roles.Sorted())
}
