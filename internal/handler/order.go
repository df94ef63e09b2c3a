package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/gusto-eats/internal/model"
)

// OrderHandler serves order placement and administration.
type OrderHandler struct {
    Orders OrderStore
    Events OrderEvents
}

func NewOrderHandler(store OrderStore, ev OrderEvents) *OrderHandler {
    return &OrderHandler{Orders: store, Events: ev}
}

type placeOrderReq struct {
    Items []model.OrderLine `json:"items"`
}

// Place handles POST /v1/orders.  Staff accounts cannot order.
func (h *OrderHandler) Place(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "administrators cannot place orders"})
    }
    var req placeOrderReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    o, err := h.Orders.Place(ctx, uid, req.Items)
    if err != nil {
        return fail(c, err)
    }
    if h.Events != nil {
        if err := h.Events.OrderPlaced(ctx, o); err != nil {
            c.Logger().Warnf("publish order %d: %v", o.ID, err)
        }
    }
    return c.JSON(http.StatusCreated, o)
}

// Mine handles GET /v1/orders and reports the sum of all order totals.
func (h *OrderHandler) Mine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    list, err := h.Orders.ListByUser(c.Request().Context(), uid)
    if err != nil {
        return fail(c, err)
    }
    total := decimal.Zero
    for _, o := range list {
        total = total.Add(o.TotalPrice)
    }
    return c.JSON(http.StatusOK, echo.Map{"orders": list, "total_price": total})
}

// Get handles GET /v1/orders/:id for the owner or an admin.
func (h *OrderHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var o model.Order
    if isAdmin(c) {
        o, err = h.Orders.Get(c.Request().Context(), id)
    } else {
        o, err = h.Orders.GetForUser(c.Request().Context(), id, uid)
    }
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

// List handles GET /v1/admin/orders.
func (h *OrderHandler) List(c echo.Context) error {
    skip, limit := page(c)
    list, err := h.Orders.ListAll(c.Request().Context(), skip, limit)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// UpdateStatus handles PATCH /v1/orders/:id/status (admin).
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    var req struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := strings.ToLower(strings.TrimSpace(req.Status))
    if !model.ValidStatus(status) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be one of pending, paid, delivered, cancelled"})
    }
    o, err := h.Orders.UpdateStatus(c.Request().Context(), id, status)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, o)
}

// Delete handles DELETE /v1/orders/:id (admin).
func (h *OrderHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    if err := h.Orders.Delete(c.Request().Context(), id); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
