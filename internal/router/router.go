// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/gusto-eats/internal/config"
	"github.com/iliyamo/gusto-eats/internal/handler"
	"github.com/iliyamo/gusto-eats/internal/middleware"
	"github.com/iliyamo/gusto-eats/internal/model"
)

// Handlers bundles every HTTP handler.  Webhook is nil when the bot is
// disabled.
type Handlers struct {
	Health     *handler.HealthHandler
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Categories *handler.CategoryHandler
	Products   *handler.ProductHandler
	Orders     *handler.OrderHandler
	Reviews    *handler.ReviewHandler
	Media      *handler.MediaHandler
	Index      *handler.IndexHandler
	Webhook    *handler.WebhookHandler
}

// Deps carries what the route middlewares need.  Redis may be nil, in
// which case caching is skipped.  When Accounts is set, authenticated
// routes also reject disabled or deleted accounts.
type Deps struct {
	JWTSecret string
	Blacklist middleware.Blacklist
	Accounts  middleware.ActiveUsers
	Cache     config.CacheConfig
	Redis     *redis.Client
}

// chains are the middleware stacks shared by the route files.
type chains struct {
	auth   []echo.MiddlewareFunc // any signed-in user
	admin  []echo.MiddlewareFunc // staff or superuser
	cached []echo.MiddlewareFunc // public reads served from Redis
	purge  echo.MiddlewareFunc   // writes that change catalogue reads
}

func newChains(d Deps) chains {
	auth := []echo.MiddlewareFunc{middleware.JWTAuth(d.JWTSecret, d.Blacklist)}
	if d.Accounts != nil {
		auth = append(auth, middleware.RequireActive(d.Accounts))
	}
	return chains{
		auth:   auth,
		admin:  append(append([]echo.MiddlewareFunc{}, auth...), middleware.RequireRole(model.RoleAdmin)),
		cached: []echo.MiddlewareFunc{middleware.NewRedisCache(d.Cache, d.Redis)},
		purge:  middleware.InvalidateCache(d.Cache, d.Redis),
	}
}

// RegisterRoutes wires every endpoint onto e.
func RegisterRoutes(e *echo.Echo, h Handlers, d Deps) {
	m := newChains(d)

	// Unversioned endpoints: liveness, the web-app page, uploaded files and
	// the Telegram webhook.
	e.GET("/healthz", h.Health.Health)
	e.GET("/", h.Index.Index)
	e.GET("/media/*", h.Media.Serve)
	if h.Webhook != nil {
		e.POST("/bot/:token", h.Webhook.Receive)
	}

	registerAuth(e, h.Auth, m)
	registerCatalog(e, h, m)
	registerCustomer(e, h, m)
	registerAdmin(e, h, m)
}

// registerAuth exposes token issuance under /v1/auth.  Logout and me need
// a valid access token; the rest are open.
func registerAuth(e *echo.Echo, a *handler.AuthHandler, m chains) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/superuser", a.Superuser)
	g.POST("/logout", a.Logout, m.auth...)
	g.GET("/me", a.Me, m.auth...)
}

// registerCatalog exposes the public, cached read side of the catalogue.
func registerCatalog(e *echo.Echo, h Handlers, m chains) {
	e.GET("/v1/categories", h.Categories.List, m.cached...)
	e.GET("/v1/categories/:id", h.Categories.Get, m.cached...)

	e.GET("/v1/products", h.Products.List, m.cached...)
	// registered before /:id so "recommends" is not parsed as an id
	e.GET("/v1/products/recommends", h.Products.Recommends, m.cached...)
	e.GET("/v1/products/:id", h.Products.Get, m.cached...)
	e.GET("/v1/products/:id/reviews", h.Products.ListReviews, m.cached...)
}
