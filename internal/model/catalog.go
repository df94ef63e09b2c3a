package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Category groups products on the menu.
type Category struct {
    ID             uint64    `json:"id"`
    Name           string    `json:"name"`
    ImagePath      string    `json:"image_path"`
    TelegramFileID *string   `json:"telegram_file_id,omitempty"`
    CreatedAt      time.Time `json:"created_at"`
}

// Product is a menu item.  Price is the list price and Discount a whole
// percentage; DiscountedPrice is what customers pay and is kept in sync by
// the repository whenever either input changes.
type Product struct {
    ID              uint64          `json:"id"`
    CategoryID      uint64          `json:"category_id"`
    Name            string          `json:"name"`
    Description     string          `json:"description"`
    Type            string          `json:"type"`
    Price           decimal.Decimal `json:"price"`
    Discount        int             `json:"discount"`
    DiscountedPrice decimal.Decimal `json:"discounted_price"`
    CountInStock    int             `json:"count_in_stock"`
    TotalReview     int             `json:"total_review"`
    AverageRating   float64         `json:"average_rating"`
    ImagePath       string          `json:"image"`
    TelegramFileID  *string         `json:"telegram_file_id,omitempty"`
    CreatedAt       time.Time       `json:"created_at"`
    UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductDetail is a product with its category and reviews.
type ProductDetail struct {
    Product
    Category *Category `json:"category,omitempty"`
    Reviews  []Review  `json:"reviews"`
}

// Review is one customer's rating of a product.  A user reviews a
// product at most once.
type Review struct {
    ID        uint64    `json:"id"`
    ProductID uint64    `json:"product_id"`
    UserID    uint64    `json:"user_id"`
    Name      string    `json:"name"`
    Rating    int       `json:"rating"`
    Comment   string    `json:"comment"`
    CreatedAt time.Time `json:"created_at"`
}

// Rating bounds.
const (
    MinRating = 0
    MaxRating = 5
)
