package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/gusto-eats/internal/repository"
    "github.com/iliyamo/gusto-eats/internal/utils"
)

const defaultDescription = "No description"

// ProductHandler manages products.  When Photos is set, newly created
// products are posted to the owner chat and the returned Telegram file id
// is cached on the product so the bot can resend the photo cheaply.
type ProductHandler struct {
    Products ProductStore
    Reviews  ReviewStore
    Images   utils.ImageStore
    Photos   PhotoSender
}

func NewProductHandler(ps ProductStore, rs ReviewStore, images utils.ImageStore, photos PhotoSender) *ProductHandler {
    return &ProductHandler{Products: ps, Reviews: rs, Images: images, Photos: photos}
}

// productForm holds parsed multipart fields; nil means "not sent".
type productForm struct {
    CategoryID   *uint64
    Name         *string
    Description  *string
    Type         *string
    Price        *decimal.Decimal
    Discount     *int
    CountInStock *int
}

func parseProductForm(c echo.Context) (productForm, string) {
    var f productForm
    if v := strings.TrimSpace(c.FormValue("category_id")); v != "" {
        id, err := strconv.ParseUint(v, 10, 64)
        if err != nil || id == 0 {
            return f, "category_id must be a positive integer"
        }
        f.CategoryID = &id
    }
    for field, dst := range map[string]**string{"name": &f.Name, "description": &f.Description, "type": &f.Type} {
        if v := strings.TrimSpace(c.FormValue(field)); v != "" {
            *dst = &v
        }
    }
    if v := strings.TrimSpace(c.FormValue("price")); v != "" {
        p, err := decimal.NewFromString(v)
        if err != nil || !p.IsPositive() {
            return f, "price must be a positive number"
        }
        p = p.Round(2)
        f.Price = &p
    }
    if v := strings.TrimSpace(c.FormValue("discount")); v != "" {
        d, err := strconv.Atoi(v)
        if err != nil || d < 0 || d > 100 {
            return f, "discount must be an integer between 0 and 100"
        }
        f.Discount = &d
    }
    if v := strings.TrimSpace(c.FormValue("count_in_stock")); v != "" {
        n, err := strconv.Atoi(v)
        if err != nil || n < 0 {
            return f, "count_in_stock must be a non-negative integer"
        }
        f.CountInStock = &n
    }
    return f, ""
}

// Create handles POST /v1/products.
func (h *ProductHandler) Create(c echo.Context) error {
    f, msg := parseProductForm(c)
    if msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    if f.Name == nil || f.Type == nil || f.Price == nil || f.CountInStock == nil || f.CategoryID == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, type, price, count_in_stock and category_id are required"})
    }
    fh, err := c.FormFile("image")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "image is required"})
    }
    in := repository.NewProduct{
        CategoryID:   *f.CategoryID,
        Name:         *f.Name,
        Description:  defaultDescription,
        Type:         *f.Type,
        Price:        *f.Price,
        CountInStock: *f.CountInStock,
    }
    if f.Description != nil {
        in.Description = *f.Description
    }
    if f.Discount != nil {
        in.Discount = *f.Discount
    }
    in.ImagePath, err = h.Images.Save(fh, "products")
    if err != nil {
        return fail(c, err)
    }
    ctx := c.Request().Context()
    p, err := h.Products.Create(ctx, in)
    if err != nil {
        _ = h.Images.Remove(in.ImagePath)
        return fail(c, err)
    }

    if h.Photos != nil {
        sctx, cancel := context.WithTimeout(ctx, 15*time.Second)
        defer cancel()
        if fileID, err := h.Photos.SendProductPhoto(sctx, p, in.ImagePath); err != nil {
            c.Logger().Warnf("send product %d photo: %v", p.ID, err)
        } else if err := h.Products.SetTelegramFileID(sctx, p.ID, fileID); err != nil {
            c.Logger().Warnf("store product %d file id: %v", p.ID, err)
        } else {
            p.TelegramFileID = &fileID
        }
    }
    return c.JSON(http.StatusCreated, p)
}

// List handles GET /v1/products with an optional ?category_id filter.
func (h *ProductHandler) List(c echo.Context) error {
    var cat uint64
    if v := c.QueryParam("category_id"); v != "" {
        id, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category_id"})
        }
        cat = id
    }
    list, err := h.Products.List(c.Request().Context(), cat)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Recommends handles GET /v1/products/recommends.
func (h *ProductHandler) Recommends(c echo.Context) error {
    list, err := h.Products.TopRated(c.Request().Context(), 10)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/products/:id.
func (h *ProductHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
    }
    d, err := h.Products.GetDetail(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, d)
}

// ListReviews handles GET /v1/products/:id/reviews.
func (h *ProductHandler) ListReviews(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
    }
    list, err := h.Reviews.ListByProduct(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Update handles PATCH /v1/products/:id.  Every field is optional.
func (h *ProductHandler) Update(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
    }
    f, msg := parseProductForm(c)
    if msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    ctx := c.Request().Context()
    old, err := h.Products.Get(ctx, id)
    if err != nil {
        return fail(c, err)
    }
    patch := repository.ProductPatch{
        CategoryID:   f.CategoryID,
        Name:         f.Name,
        Description:  f.Description,
        Type:         f.Type,
        Price:        f.Price,
        Discount:     f.Discount,
        CountInStock: f.CountInStock,
    }
    if fh, err := c.FormFile("image"); err == nil {
        path, err := h.Images.Save(fh, "products")
        if err != nil {
            return fail(c, err)
        }
        patch.ImagePath = &path
    }
    p, err := h.Products.Update(ctx, id, patch)
    if err != nil {
        if patch.ImagePath != nil {
            _ = h.Images.Remove(*patch.ImagePath)
        }
        return fail(c, err)
    }
    if patch.ImagePath != nil {
        _ = h.Images.Remove(old.ImagePath)
    }
    return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /v1/products/:id.
func (h *ProductHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
    }
    p, err := h.Products.Delete(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    if err := h.Images.Remove(p.ImagePath); err != nil {
        c.Logger().Warnf("remove product image %s: %v", p.ImagePath, err)
    }
    return c.NoContent(http.StatusNoContent)
}
