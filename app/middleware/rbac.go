package middleware

import (
	"net/http"

	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/response"
)

// Allow admits only identities in p. Authenticate must run first.
func Allow(p services.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := p.Allow(scope.From(r.Context()).Identity); err != nil {
				response.Fail(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
