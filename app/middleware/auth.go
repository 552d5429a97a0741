package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/logger"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/response"
)

type Verifier interface {
	Verify(ctx context.Context, token string) (*models.User, error)
}

// Authenticate verifies the bearer credential and adds the identity to the
// scope. With required false a request without a credential continues as a
// guest; a credential that is present but invalid is always rejected.
func Authenticate(verifier Verifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if required {
					response.Fail(w, r, apperr.New(apperr.KindUnauthenticated, "Not authorized, no token"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				response.Fail(w, r, err)
				return
			}

			ctx := logger.With(r.Context(), "user_id", user.ID)
			sc := scope.From(ctx)
			sc.Identity = user
			next.ServeHTTP(w, r.WithContext(scope.With(ctx, sc)))
		})
	}
}

// Guard enforces the tenant boundary for the authenticated identity.
// allowPlatform admits non-superadmin identities when no store was resolved.
func Guard(allowPlatform bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sc := scope.From(r.Context())
			if err := services.CheckIsolation(sc.Identity, sc.Store, allowPlatform); err != nil {
				logger.WithCtx(r.Context()).Warn("tenant isolation rejected request",
					"path", r.URL.Path)
				response.Fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter that browser websocket and SSE clients send.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
