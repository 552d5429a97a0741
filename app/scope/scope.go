// Package scope carries the resolved tenant and verified identity of a
// request. Middleware fills it in; handlers receive it as an explicit value.
package scope

import (
	"context"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
)

// Scope is the per-request tenant context. Store is nil when no tenant was
// resolved (platform context); Identity is nil for guests.
type Scope struct {
	Store    *models.Store
	Identity *models.User
}

type ctxKey struct{}

// With stores s in ctx.
func With(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From returns the scope stored in ctx, or the zero scope.
func From(ctx context.Context) Scope {
	s, _ := ctx.Value(ctxKey{}).(Scope)
	return s
}

func (s Scope) HasStore() bool { return s.Store != nil }

// StoreID returns the resolved store's id, or "".
func (s Scope) StoreID() string {
	if s.Store == nil {
		return ""
	}
	return s.Store.ID
}

// IsSuperAdmin reports whether the caller is a platform superadmin.
func (s Scope) IsSuperAdmin() bool {
	return s.Identity != nil && s.Identity.IsSuperAdmin
}
