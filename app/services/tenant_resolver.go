package services

import (
	"context"
	"net"
	"strings"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/repositories"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
)

// StoreLookup finds stores by each of the tenant hints.
type StoreLookup interface {
	FindByID(ctx context.Context, id string) (*models.Store, error)
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	FindByDomain(ctx context.Context, domain string) (*models.Store, error)
}

// TenantHints are the request attributes a tenant can be resolved from.
type TenantHints struct {
	StoreID string
	Slug    string
	Host    string
}

// TenantResolver binds a request to a store.
type TenantResolver struct {
	stores StoreLookup
}

func NewTenantResolver(stores StoreLookup) *TenantResolver {
	return &TenantResolver{stores: stores}
}

// Resolve tries the explicit store id, then the slug, then the host's custom
// domain. The first match wins. No match is not an error: it returns a nil
// store, which is the platform context.
func (r *TenantResolver) Resolve(ctx context.Context, h TenantHints) (*models.Store, error) {
	type attempt struct {
		value string
		find  func(context.Context, string) (*models.Store, error)
	}
	attempts := []attempt{
		{strings.TrimSpace(h.StoreID), r.stores.FindByID},
		{strings.TrimSpace(h.Slug), r.stores.FindBySlug},
		{normalizeHost(h.Host), r.stores.FindByDomain},
	}

	for _, a := range attempts {
		if a.value == "" {
			continue
		}
		store, err := a.find(ctx, a.value)
		if err == nil {
			return store, nil
		}
		if !repositories.IsNotFound(err) {
			return nil, apperr.Wrap("tenant.Resolve", err)
		}
	}
	return nil, nil
}

// normalizeHost lowercases host and strips any port and trailing dot.
func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}
