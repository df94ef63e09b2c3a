// Package queue carries order notifications over RabbitMQ: the API
// publishes an OrderPlacedEvent after each committed order and a
// background consumer forwards it to the shop owner.
package queue

import (
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/gusto-eats/internal/model"
)

// OrderPlacedQueue is the durable queue order events are published to.
const OrderPlacedQueue = "order.placed"

// OrderPlacedEvent is self-contained so consumers never query the
// database.  Money is encoded as decimal strings.
type OrderPlacedEvent struct {
    OrderID  uint64      `json:"order_id"`
    UserID   uint64      `json:"user_id"`
    Status   string      `json:"status"`
    Total    string      `json:"total_price"`
    Items    []EventItem `json:"items"`
    PlacedAt string      `json:"placed_at"`
}

type EventItem struct {
    ProductID uint64 `json:"product_id"`
    Name      string `json:"name"`
    Quantity  int    `json:"quantity"`
    UnitPrice string `json:"unit_price"`
}

// NewOrderPlacedEvent snapshots o.
func NewOrderPlacedEvent(o model.Order) OrderPlacedEvent {
    ev := OrderPlacedEvent{
        OrderID:  o.ID,
        UserID:   o.UserID,
        Status:   o.Status,
        Total:    o.TotalPrice.StringFixed(2),
        Items:    make([]EventItem, 0, len(o.Items)),
        PlacedAt: o.CreatedAt.UTC().Format(time.RFC3339),
    }
    for _, it := range o.Items {
        ev.Items = append(ev.Items, EventItem{
            ProductID: it.ProductID,
            Name:      it.ProductName,
            Quantity:  it.Quantity,
            UnitPrice: it.UnitPrice.StringFixed(2),
        })
    }
    return ev
}

// Summary renders the event as the plain-text message sent to the owner.
func (ev OrderPlacedEvent) Summary() string {
    var b strings.Builder
    fmt.Fprintf(&b, "New order #%d from user %d\n", ev.OrderID, ev.UserID)
    for _, it := range ev.Items {
        fmt.Fprintf(&b, "- %s x%d @ %s\n", it.Name, it.Quantity, it.UnitPrice)
    }
    fmt.Fprintf(&b, "Total: %s\nPlaced at: %s", ev.Total, ev.PlacedAt)
    return b.String()
}
