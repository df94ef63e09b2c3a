package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/gusto-eats/internal/model"
    "github.com/iliyamo/gusto-eats/internal/repository"
)

// ReviewHandler lets customers rate products.
type ReviewHandler struct {
    Reviews ReviewStore
}

func NewReviewHandler(rs ReviewStore) *ReviewHandler { return &ReviewHandler{Reviews: rs} }

type createReviewReq struct {
    ProductID uint64 `json:"product_id"`
    Rating    *int   `json:"rating"`
    Name      string `json:"name"`
    Comment   string `json:"comment"`
}

// Create handles POST /v1/reviews.  A user reviews a product once; staff
// cannot review.
func (h *ReviewHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "administrators cannot write reviews"})
    }
    var req createReviewReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.ProductID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
    }
    if req.Rating == nil || *req.Rating < model.MinRating || *req.Rating > model.MaxRating {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 0 and 5"})
    }
    name := strings.TrimSpace(req.Name)
    if name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }
    rv, err := h.Reviews.Create(c.Request().Context(), uid, repository.NewReview{
        ProductID: req.ProductID,
        Name:      name,
        Rating:    *req.Rating,
        Comment:   strings.TrimSpace(req.Comment),
    })
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, rv)
}
