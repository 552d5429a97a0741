// Package ctx gives handlers a single request context instead of the
// (http.ResponseWriter, *http.Request) pair:
//
//	func Track(c *ctx.Context) {
//	    order, err := orders.Track(c.Context(), scope.From(c.Context()), c.Param("id"))
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.Success(order)
//	}
//
//	r.Get("/api/orders/track/{id}", "orders.track", ctx.Wrap(Track))
package ctx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/dimitrisnimas/Online-Delivery-App/pkg/response"
)

// MaxBodyBytes caps the JSON bodies BindJSON accepts.
const MaxBodyBytes = 1 << 20

type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps one request/response pair.
type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

func (c *Context) Context() context.Context { return c.R.Context() }

// BindJSON decodes the request body into dest. On malformed input it sends
// a 400 and returns false; the handler should return immediately.
func (c *Context) BindJSON(dest any) bool {
	dec := json.NewDecoder(io.LimitReader(c.R.Body, MaxBodyBytes))
	if err := dec.Decode(dest); err != nil {
		msg := "Invalid JSON body"
		var syntax *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			msg = "Request body is empty"
		case errors.As(err, &typeErr) && typeErr.Field != "":
			msg = "Invalid value for " + typeErr.Field
		case errors.As(err, &syntax):
		}
		response.Error(c.W, http.StatusBadRequest, msg)
		return false
	}
	return true
}

// Bearer returns the token of an "Authorization: Bearer <token>" header.
func (c *Context) Bearer() string {
	h := c.Header("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (c *Context) Success(data any) { response.Success(c.W, data) }

func (c *Context) Created(data any) { response.Created(c.W, data) }

// Fail answers with the status and message of err's kind.
func (c *Context) Fail(err error) { response.Fail(c.W, c.R, err) }

func (c *Context) Error(code int, message string) { response.Error(c.W, code, message) }
