package controllers

import (
	"net/http"

	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/ctx"
)

// PlatformController is the superadmin console. Its routes are gated by
// the SuperAdminOnly policy.
type PlatformController struct {
	platform *services.PlatformService
}

func NewPlatformController(platform *services.PlatformService) *PlatformController {
	return &PlatformController{platform: platform}
}

func (pc *PlatformController) Stores() http.HandlerFunc {
	return ctx.Wrap(func(c *ctx.Context) {
		stores, err := pc.platform.ListStores(c.Context())
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(stores)
	})
}

func (pc *PlatformController) CreateStore() http.HandlerFunc {
	return ctx.Wrap(func(c *ctx.Context) {
		var in services.NewStoreInput
		if !c.BindJSON(&in) {
			return
		}
		store, err := pc.platform.CreateStore(c.Context(), in)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Created(store)
	})
}

// SetStatus handles PUT /api/superadmin/stores/{id}/status with {"isActive": bool}.
func (pc *PlatformController) SetStatus() http.HandlerFunc {
	return ctx.Wrap(func(c *ctx.Context) {
		var in struct {
			IsActive *bool `json:"isActive"`
		}
		if !c.BindJSON(&in) {
			return
		}
		if in.IsActive == nil {
			c.Fail(apperr.New(apperr.KindInvalid, "isActive is required"))
			return
		}
		store, err := pc.platform.SetStoreActive(c.Context(), c.Param("id"), *in.IsActive)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(store)
	})
}

func (pc *PlatformController) Analytics() http.HandlerFunc {
	return ctx.Wrap(func(c *ctx.Context) {
		stats, err := pc.platform.Analytics(c.Context())
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(stats)
	})
}
