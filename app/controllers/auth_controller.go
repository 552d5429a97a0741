package controllers

import (
	"net/http"

	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/app/services"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

func (ac *AuthController) Register() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		var in services.Credentials
		if !c.BindJSON(&in) {
			return
		}
		session, err := ac.service.Register(c.Context(), sc, in)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Created(session)
	})
}

// Login authenticates against the resolved store, or as a superadmin when
// the request carries no tenant.
func (ac *AuthController) Login() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		var in struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if !c.BindJSON(&in) {
			return
		}
		session, err := ac.service.Login(c.Context(), sc, in.Email, in.Password)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(session)
	})
}

func (ac *AuthController) Me() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		session, err := ac.service.Me(sc)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(session)
	})
}

func (ac *AuthController) CreateStaff() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		var in services.Credentials
		if !c.BindJSON(&in) {
			return
		}
		staff, err := ac.service.CreateStaff(c.Context(), sc, in)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Created(staff)
	})
}

func (ac *AuthController) ListStaff() http.HandlerFunc {
	return scoped(func(c *ctx.Context, sc scope.Scope) {
		staff, err := ac.service.ListStaff(c.Context(), sc)
		if err != nil {
			c.Fail(err)
			return
		}
		c.Success(staff)
	})
}
