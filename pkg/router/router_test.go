package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/router"
)

func TestGroupMiddlewareOrder(t *testing.T) {
	r := router.New()
	var trail []string
	mark := func(name string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				trail = append(trail, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	api := r.Group("/api", mark("group"))
	api.Put("/orders/{id}/status", "orders.status", func(w http.ResponseWriter, req *http.Request) {
		trail = append(trail, "handler:"+chi.URLParam(req, "id"))
	}, mark("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/orders/42/status", nil))

	assert.Equal(t, []string{"group", "route", "handler:42"}, trail)
}

func TestURLAndRoutes(t *testing.T) {
	r := router.New()
	r.Group("api").Get("orders/track/{id}", "orders.track", func(http.ResponseWriter, *http.Request) {})
	r.Post("/api/orders", "orders.place", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("orders.track", map[string]string{"id": "abc"})
	require.NoError(t, err)
	assert.Equal(t, "/api/orders/track/abc", url)

	_, err = r.URL("orders.track", nil)
	assert.Error(t, err)

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/api/orders", routes[0].Path)
	assert.Equal(t, http.MethodPost, routes[0].Method)
}
