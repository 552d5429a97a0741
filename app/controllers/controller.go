// Package controllers holds the HTTP handlers. Each handler receives the
// request scope explicitly and delegates to a service.
package controllers

import (
	"net/http"

	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/ctx"
)

type scopedFunc func(c *ctx.Context, sc scope.Scope)

// scoped hands h the scope built by the tenant and auth middleware.
func scoped(h scopedFunc) http.HandlerFunc {
	return ctx.Wrap(func(c *ctx.Context) {
		h(c, scope.From(c.Context()))
	})
}
