package router

import (
	"github.com/labstack/echo/v4"
)

// registerAdmin registers staff-only endpoints.  All routes require a valid
// JWT and the ADMIN role; catalogue writes purge the response cache.
func registerAdmin(e *echo.Echo, h Handlers, m chains) {
	write := append(append([]echo.MiddlewareFunc{}, m.admin...), m.purge)

	// ---- Categories ----
	e.POST("/v1/categories", h.Categories.Create, write...)
	e.PATCH("/v1/categories/:id", h.Categories.Update, write...)
	e.DELETE("/v1/categories/:id", h.Categories.Delete, write...)

	// ---- Products ----
	e.POST("/v1/products", h.Products.Create, write...)
	e.PATCH("/v1/products/:id", h.Products.Update, write...)
	e.DELETE("/v1/products/:id", h.Products.Delete, write...)

	// ---- Orders ----
	e.GET("/v1/admin/orders", h.Orders.List, m.admin...)
	// cancelling restocks products
	e.PATCH("/v1/orders/:id/status", h.Orders.UpdateStatus, write...)
	e.DELETE("/v1/orders/:id", h.Orders.Delete, m.admin...)

	// ---- Users ----
	e.POST("/v1/users", h.Users.Create, m.admin...)
	e.GET("/v1/users", h.Users.List, m.admin...)
}
