package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimitrisnimas/Online-Delivery-App/app/middleware"
	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
)

type fakeResolver struct {
	got   services.TenantHints
	store *models.Store
}

func (f *fakeResolver) Resolve(_ context.Context, h services.TenantHints) (*models.Store, error) {
	f.got = h
	return f.store, nil
}

type fakeVerifier map[string]*models.User

func (f fakeVerifier) Verify(_ context.Context, token string) (*models.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, apperr.New(apperr.KindUnauthenticated, "Not authorized, token failed")
}

func store(id string) *models.Store {
	s := &models.Store{Slug: id, IsActive: true}
	s.ID = id
	return s
}

func user(id, storeID string, role models.Role) *models.User {
	u := &models.User{Role: role}
	u.ID = id
	if storeID != "" {
		u.StoreID = &storeID
	}
	return u
}

var verifier = fakeVerifier{
	"acme-staff": user("u1", "acme", models.RoleStaff),
	"acme-cust":  user("u2", "acme", models.RoleCustomer),
	"roma-admin": user("u3", "roma", models.RoleAdmin),
	"root":       {Role: models.RoleAdmin, IsSuperAdmin: true},
}

// chain builds the middleware stack around a handler that echoes the scope.
func chain(resolver middleware.Resolver, mws ...func(http.Handler) http.Handler) http.Handler {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := scope.From(r.Context())
		out := map[string]any{"store": sc.StoreID()}
		if sc.Identity != nil {
			out["user"] = sc.Identity.ID
		}
		json.NewEncoder(w).Encode(out)
	})
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return middleware.ResolveTenant(resolver)(h)
}

func call(h http.Handler, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "http://eat.acme.test:8080/api/orders", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResolveTenantPassesHints(t *testing.T) {
	resolver := &fakeResolver{store: store("acme")}
	rec := call(chain(resolver), "", map[string]string{
		middleware.HeaderStoreID:   "id-1",
		middleware.HeaderStoreSlug: "acme",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.TenantHints{StoreID: "id-1", Slug: "acme", Host: "eat.acme.test:8080"}, resolver.got)
	assert.JSONEq(t, `{"store":"acme"}`, rec.Body.String())
}

func TestAuthenticate(t *testing.T) {
	resolver := &fakeResolver{store: store("acme")}
	optional := chain(resolver, middleware.Authenticate(verifier, false))
	required := chain(resolver, middleware.Authenticate(verifier, true))

	rec := call(optional, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"store":"acme"}`, rec.Body.String())

	rec = call(optional, "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not authorized, token failed")

	rec = call(required, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "no token")

	rec = call(required, "acme-staff", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"store":"acme","user":"u1"}`, rec.Body.String())
}

func TestAuthenticateReadsQueryToken(t *testing.T) {
	h := chain(&fakeResolver{}, middleware.Authenticate(verifier, true))
	req := httptest.NewRequest(http.MethodGet, "/ws?token=acme-staff", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard(t *testing.T) {
	cases := []struct {
		name          string
		store         *models.Store
		token         string
		allowPlatform bool
		want          int
	}{
		{"own tenant", store("acme"), "acme-staff", false, http.StatusOK},
		{"foreign tenant", store("acme"), "roma-admin", false, http.StatusForbidden},
		{"superadmin anywhere", store("acme"), "root", false, http.StatusOK},
		{"superadmin on platform", nil, "root", false, http.StatusOK},
		{"tenant user on platform", nil, "acme-staff", false, http.StatusForbidden},
		{"platform-allowed route", nil, "acme-cust", true, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := chain(&fakeResolver{store: tc.store},
				middleware.Authenticate(verifier, true),
				middleware.Guard(tc.allowPlatform),
			)
			rec := call(h, tc.token, nil)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusForbidden {
				assert.Contains(t, rec.Body.String(), "Not authorized for this store")
				assert.NotContains(t, rec.Body.String(), "roma")
			}
		})
	}
}

func TestAllow(t *testing.T) {
	h := chain(&fakeResolver{store: store("acme")},
		middleware.Authenticate(verifier, false),
		middleware.Guard(false),
		middleware.Allow(services.StaffOnly),
	)

	assert.Equal(t, http.StatusOK, call(h, "acme-staff", nil).Code)
	assert.Equal(t, http.StatusOK, call(h, "root", nil).Code)
	assert.Equal(t, http.StatusForbidden, call(h, "acme-cust", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(h, "", nil).Code)
}
