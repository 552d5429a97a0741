package services

import (
	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
)

// CheckIsolation enforces the tenant boundary for an authenticated identity.
//
// With a store resolved, the identity must belong to it unless it is a
// superadmin. Without one, only superadmins pass, and other identities only
// when allowPlatform marks the capability as usable outside any tenant.
// The error never says which store the identity belongs to.
func CheckIsolation(identity *models.User, store *models.Store, allowPlatform bool) error {
	if identity == nil || identity.IsSuperAdmin {
		return nil
	}
	if store == nil {
		if allowPlatform {
			return nil
		}
		return apperr.New(apperr.KindTenantMismatch, "")
	}
	if !identity.BelongsTo(store.ID) {
		return apperr.New(apperr.KindTenantMismatch, "")
	}
	return nil
}

// Policy is the allow-set of one capability.
type Policy struct {
	Roles      []models.Role
	SuperAdmin bool
}

var (
	StaffOnly      = Policy{Roles: []models.Role{models.RoleStaff, models.RoleAdmin}, SuperAdmin: true}
	AdminOnly      = Policy{Roles: []models.Role{models.RoleAdmin}, SuperAdmin: true}
	SuperAdminOnly = Policy{SuperAdmin: true}
)

// Allow checks identity against p. A missing identity is Unauthenticated;
// an identity outside the set is Forbidden.
func (p Policy) Allow(identity *models.User) error {
	if identity == nil {
		return apperr.New(apperr.KindUnauthenticated, "")
	}
	if p.SuperAdmin && identity.IsSuperAdmin {
		return nil
	}
	if identity.IsSuperAdmin && !p.SuperAdmin {
		return apperr.New(apperr.KindForbidden, "")
	}
	for _, r := range p.Roles {
		if identity.Role == r {
			return nil
		}
	}
	return apperr.New(apperr.KindForbidden, "")
}
