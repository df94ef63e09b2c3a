package model

import (
    "math"

    "github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountedPrice applies a whole-percent discount and rounds to cents.
// Discounts outside 0..100 are clamped.
func DiscountedPrice(price decimal.Decimal, discount int) decimal.Decimal {
    if discount < 0 {
        discount = 0
    }
    if discount > 100 {
        discount = 100
    }
    off := price.Mul(decimal.NewFromInt(int64(discount))).Div(hundred)
    return price.Sub(off).Round(2)
}

// AverageRating is the arithmetic mean of ratings rounded to three decimals.
// An empty slice averages to zero.
func AverageRating(ratings []int) float64 {
    if len(ratings) == 0 {
        return 0
    }
    sum := 0
    for _, r := range ratings {
        sum += r
    }
    mean := float64(sum) / float64(len(ratings))
    return math.Round(mean*1000) / 1000
}

// OrderTotal sums the subtotals of items.
func OrderTotal(items []OrderItem) decimal.Decimal {
    total := decimal.Zero
    for _, it := range items {
        total = total.Add(it.Subtotal())
    }
    return total
}
