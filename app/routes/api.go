package routes

import (
	"net/http"

	"github.com/dimitrisnimas/Online-Delivery-App/app/controllers"
	"github.com/dimitrisnimas/Online-Delivery-App/app/middleware"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/response"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/router"
)

// Deps is everything the route table binds to.
type Deps struct {
	Resolver middleware.Resolver
	Verifier middleware.Verifier

	Auth     *controllers.AuthController
	Orders   *controllers.OrderController
	Store    *controllers.StoreController
	Platform *controllers.PlatformController
	Realtime *controllers.RealtimeController
}

// RegisterAPI mounts the delivery API. Every route below runs inside the
// tenant resolver; identity and isolation checks are added per group.
func RegisterAPI(r *router.Router, d Deps) {
	tenant := middleware.ResolveTenant(d.Resolver)
	optional := middleware.Authenticate(d.Verifier, false)
	required := middleware.Authenticate(d.Verifier, true)
	isolated := middleware.Guard(false)

	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})

	api := r.Group("/api", tenant)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", "auth.register", d.Auth.Register())
	authRoutes.Post("/login", "auth.login", d.Auth.Login())
	authRoutes.Get("/me", "auth.me", d.Auth.Me(), required, middleware.Guard(true))

	staff := authRoutes.Group("/staff", required, isolated, middleware.Allow(services.AdminOnly))
	staff.Post("", "auth.staff.create", d.Auth.CreateStaff())
	staff.Get("", "auth.staff.index", d.Auth.ListStaff())

	orders := api.Group("/orders")
	orders.Post("", "orders.place", d.Orders.Place(), optional, isolated)
	orders.Get("/track/{id}", "orders.track", d.Orders.Track())
	orders.Get("/{id}/events", "orders.events", d.Orders.Events(), optional, isolated)
	orders.Get("/my", "orders.mine", d.Orders.ListMine(), required, isolated)

	dashboard := orders.Group("", required, isolated, middleware.Allow(services.StaffOnly))
	dashboard.Get("", "orders.index", d.Orders.ListStore())
	dashboard.Get("/reports", "orders.reports", d.Orders.Reports())
	dashboard.Put("/{id}/status", "orders.status", d.Orders.UpdateStatus())

	api.Get("/store", "store.show", d.Store.Info())
	api.Get("/store/stages", "store.stages", d.Store.Stages())
	api.Get("/products", "products.index", d.Store.Products())

	platform := api.Group("/superadmin", required, isolated, middleware.Allow(services.SuperAdminOnly))
	platform.Get("/stores", "superadmin.stores.index", d.Platform.Stores())
	platform.Post("/stores", "superadmin.stores.create", d.Platform.CreateStore())
	platform.Put("/stores/{id}/status", "superadmin.stores.status", d.Platform.SetStatus())
	platform.Get("/analytics", "superadmin.analytics", d.Platform.Analytics())

	r.Group("", tenant, optional, isolated).Get("/ws", "realtime.socket", d.Realtime.Socket())
}
