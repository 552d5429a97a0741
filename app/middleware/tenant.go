// Package middleware builds the request scope: the tenant the request is
// for, the identity making it, and the checks between the two.
//
// Routes stack them in this order:
//
//	ResolveTenant → Authenticate → Guard → Allow
package middleware

import (
	"context"
	"net/http"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/response"
)

const (
	HeaderStoreID   = "X-Store-Id"
	HeaderStoreSlug = "X-Store-Slug"
)

type Resolver interface {
	Resolve(ctx context.Context, h services.TenantHints) (*models.Store, error)
}

// ResolveTenant binds the request to a store when one of the tenant hints
// matches. An unmatched request continues in the platform context.
func ResolveTenant(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			store, err := resolver.Resolve(r.Context(), services.TenantHints{
				StoreID: r.Header.Get(HeaderStoreID),
				Slug:    r.Header.Get(HeaderStoreSlug),
				Host:    r.Host,
			})
			if err != nil {
				response.Fail(w, r, err)
				return
			}

			ctx := r.Context()
			sc := scope.From(ctx)
			sc.Store = store
			if store != nil {
				ctx = logger.With(ctx, "store_id", store.ID)
			}
			next.ServeHTTP(w, r.WithContext(scope.With(ctx, sc)))
		})
	}
}
