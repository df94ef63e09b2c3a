package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Order statuses as stored in orders.status.
const (
    OrderPending   = "pending"
    OrderPaid      = "paid"
    OrderDelivered = "delivered"
    OrderCancelled = "cancelled"
)

// Order is a placed order.  TotalPrice is fixed at creation time and equals
// the sum of its items' UnitPrice*Quantity.
type Order struct {
    ID         uint64          `json:"id"`
    UserID     uint64          `json:"user_id"`
    TotalPrice decimal.Decimal `json:"total_price"`
    Status     string          `json:"status"`
    CreatedAt  time.Time       `json:"created_at"`
    UpdatedAt  time.Time       `json:"updated_at"`
    PaidAt     *time.Time      `json:"paid_at,omitempty"`
    Items      []OrderItem     `json:"items"`
}

// OrderItem snapshots the product price at purchase time so later catalogue
// edits do not change historical orders.
type OrderItem struct {
    ID          uint64          `json:"id"`
    OrderID     uint64          `json:"order_id"`
    ProductID   uint64          `json:"product_id"`
    ProductName string          `json:"product_name,omitempty"`
    ImagePath   string          `json:"image,omitempty"`
    FileID      string          `json:"-"`
    Quantity    int             `json:"quantity"`
    UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Subtotal is UnitPrice*Quantity.
func (it OrderItem) Subtotal() decimal.Decimal {
    return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// OrderLine is one requested line of a new order.
type OrderLine struct {
    ProductID uint64 `json:"product_id"`
    Quantity  int    `json:"quantity"`
}

// nextStatus lists the transitions an administrator may apply.
var nextStatus = map[string][]string{
    OrderPending: {OrderPaid, OrderCancelled},
    OrderPaid:    {OrderDelivered, OrderCancelled},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
    for _, s := range nextStatus[from] {
        if s == to {
            return true
        }
    }
    return false
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
    switch s {
    case OrderPending, OrderPaid, OrderDelivered, OrderCancelled:
        return true
    }
    return false
}
