package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// HealthHandler reports liveness plus the state of the database.
type HealthHandler struct {
    DB Pinger
}

// Health handles GET /healthz.  It answers 503 when the database is down
// so load balancers can drain the instance.
func (h *HealthHandler) Health(c echo.Context) error {
    if h.DB == nil {
        return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    if err := h.DB.PingContext(ctx); err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "database": err.Error()})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "ok", "database": "ok"})
}
