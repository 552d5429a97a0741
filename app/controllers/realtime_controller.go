package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/ctx"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/realtime"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/ws"
)

// RealtimeController upgrades /ws connections and vets their topic joins.
type RealtimeController struct {
	orders *services.OrderService
	hub    ws.Hub
}

func NewRealtimeController(orders *services.OrderService, hub ws.Hub) *RealtimeController {
	return &RealtimeController{orders: orders, hub: hub}
}

// Socket serves GET /ws. Staff of the resolved store join its tenant topic
// on connect; anyone may join the topic of an order visible to them.
func (rc *RealtimeController) Socket() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		opts := ws.Options{
			Authorize: func(ctx context.Context, topic string) error {
				if err := rc.authorize(ctx, sc, topic); err != nil {
					return errors.New(apperr.Message(err))
				}
				return nil
			},
		}
		if sc.HasStore() && canWatchTenant(sc.Identity, sc.StoreID()) == nil {
			opts.AutoJoin = []string{realtime.TenantTopic(sc.StoreID())}
		}
		ws.Serve(c.W, c.R, rc.hub, opts)
	})
}

func (rc *RealtimeController) authorize(ctx context.Context, sc scope.Scope, topic string) error {
	kind, id, ok := realtime.TopicKind(topic)
	if !ok {
		return apperr.Newf(apperr.KindInvalid, "Unknown topic %q", topic)
	}
	if kind == "order" {
		return rc.orders.Exists(ctx, sc, id)
	}
	if sc.HasStore() && sc.StoreID() != id && !sc.IsSuperAdmin() {
		return apperr.New(apperr.KindTenantMismatch, "")
	}
	return canWatchTenant(sc.Identity, id)
}

// canWatchTenant reports whether identity may follow every order of
// storeID: its STAFF and ADMIN users, and superadmins.
func canWatchTenant(identity *models.User, storeID string) error {
	if err := services.StaffOnly.Allow(identity); err != nil {
		return err
	}
	if identity.IsSuperAdmin || identity.BelongsTo(storeID) {
		return nil
	}
	return apperr.New(apperr.KindTenantMismatch, "")
}
