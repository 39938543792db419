package session

import (
	"context"

	"github.com/marcogenualdo/sso-session/internal/roles"
)

// Capability is the only view of the session the rest of the application
// may depend on.
type Capability interface {
	IsAuthenticated() bool
	Roles() roles.Set
	Loading() bool
	HasRole(name string) bool
	Login(ctx context.Context)
	Logout(ctx context.Context)
}

var _ Capability = (*Controller)(nil)

func (c *Controller) IsAuthenticated() bool {
	return c.Snapshot().IsAuthenticated()
}

func (c *Controller) Roles() roles.Set {
	return c.Snapshot().Roles
}

func (c *Controller) Loading() bool {
	return c.Snapshot().Loading
}

func (c *Controller) HasRole(name string) bool {
	return c.Snapshot().Roles.Has(name)
}
