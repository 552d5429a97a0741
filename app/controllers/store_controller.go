package controllers

import (
	"net/http"

	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/ctx"
)

// StoreController serves the storefront of the resolved store.
type StoreController struct {
	catalog *services.CatalogService
}

func NewStoreController(catalog *services.CatalogService) *StoreController {
	return &StoreController{catalog: catalog}
}

func (sc *StoreController) Info() http.HandlerFunc {
	return scoped(func(c *ctx.Context, s scope.Scope) {
		store, err := sc.catalog.StoreInfo(s)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(store)
	})
}

func (sc *StoreController) Stages() http.HandlerFunc {
	return scoped(func(c *ctx.Context, s scope.Scope) {
		stages, err := sc.catalog.Stages(c.Context(), s)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(stages)
	})
}

func (sc *StoreController) Products() http.HandlerFunc {
	return scoped(func(c *ctx.Context, s scope.Scope) {
		products, err := sc.catalog.Products(c.Context(), s)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(products)
	})
}
