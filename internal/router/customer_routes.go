package router

import (
	"github.com/labstack/echo/v4"
)

// registerCustomer registers endpoints open to any signed-in user.
// Ownership (self or admin) is checked inside the handlers.  Placing an
// order or posting a review changes stock and ratings shown by the cached
// catalogue, so those writes purge it.
func registerCustomer(e *echo.Echo, h Handlers, m chains) {
	withPurge := append(append([]echo.MiddlewareFunc{}, m.auth...), m.purge)

	e.POST("/v1/orders", h.Orders.Place, withPurge...)
	e.GET("/v1/orders", h.Orders.Mine, m.auth...)
	e.GET("/v1/orders/:id", h.Orders.Get, m.auth...)

	e.POST("/v1/reviews", h.Reviews.Create, withPurge...)

	e.GET("/v1/users/:id", h.Users.Get, m.auth...)
	e.PATCH("/v1/users/:id", h.Users.Update, m.auth...)
	e.DELETE("/v1/users/:id", h.Users.Delete, m.auth...)
}
