package controllers

import (
	"net/http"

	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/ctx"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/realtime"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/sse"
)

type OrderController struct {
	orders *services.OrderService
	hub    sse.Hub
}

func NewOrderController(orders *services.OrderService, hub sse.Hub) *OrderController {
	return &OrderController{orders: orders, hub: hub}
}

// Place handles POST /api/orders. Guests and signed-in customers alike.
func (oc *OrderController) Place() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		var in services.PlaceOrderInput
		if !c.BindJSON(&in) {
			return
		}
		order, err := oc.orders.Place(c.Context(), sc, in)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Created(order)
	})
}

func (oc *OrderController) ListStore() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		orders, err := oc.orders.ListForStore(c.Context(), sc)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(orders)
	})
}

func (oc *OrderController) ListMine() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		orders, err := oc.orders.ListMine(c.Context(), sc)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(orders)
	})
}

func (oc *OrderController) Reports() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		report, err := oc.orders.SalesReport(c.Context(), sc)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(report)
	})
}

func (oc *OrderController) Track() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		order, err := oc.orders.Track(c.Context(), sc, c.Param("id"))
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(order)
	})
}

// UpdateStatus handles PUT /api/orders/{id}/status with {"statusId": ...}.
func (oc *OrderController) UpdateStatus() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		var in struct {
			StatusID string `json:"statusId"`
		}
		if !c.BindJSON(&in) {
			return
		}
		if in.StatusID == "" {
			c.Fail(apperr.New(apperr.KindInvalid, "statusId is required"))
			return
		}
		order, err := oc.orders.UpdateStatus(c.Context(), sc, c.Param("id"), in.StatusID)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(order)
	})
}

// Events streams the updates of one order as server-sent events.
func (oc *OrderController) Events() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		id := c.Param("id")
		if err := oc.orders.Exists(c.Context(), sc, id); err != nil {
			c.Fail(err)
			return
		}
		sse.Serve(c.W, c.R, oc.hub, realtime.OrderTopic(id))
	})
}
