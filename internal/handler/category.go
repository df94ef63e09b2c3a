package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/gusto-eats/internal/utils"
)

// CategoryHandler manages menu categories.
type CategoryHandler struct {
    Categories CategoryStore
    Images     utils.ImageStore
}

func NewCategoryHandler(cs CategoryStore, images utils.ImageStore) *CategoryHandler {
    return &CategoryHandler{Categories: cs, Images: images}
}

// Create handles POST /v1/categories (multipart: name, image).
func (h *CategoryHandler) Create(c echo.Context) error {
    name := strings.TrimSpace(c.FormValue("name"))
    if name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }
    fh, err := c.FormFile("image")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "image is required"})
    }
    path, err := h.Images.Save(fh, "categories")
    if err != nil {
        return fail(c, err)
    }
    cat, err := h.Categories.Create(c.Request().Context(), name, path)
    if err != nil {
        _ = h.Images.Remove(path)
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, cat)
}

// List handles GET /v1/categories.
func (h *CategoryHandler) List(c echo.Context) error {
    list, err := h.Categories.List(c.Request().Context())
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/categories/:id.
func (h *CategoryHandler) Get(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
    }
    cat, err := h.Categories.Get(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, cat)
}

// Update handles PATCH /v1/categories/:id with optional name and image.
func (h *CategoryHandler) Update(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
    }
    ctx := c.Request().Context()
    old, err := h.Categories.Get(ctx, id)
    if err != nil {
        return fail(c, err)
    }

    var name, path *string
    if v := strings.TrimSpace(c.FormValue("name")); v != "" {
        name = &v
    }
    if fh, err := c.FormFile("image"); err == nil {
        p, err := h.Images.Save(fh, "categories")
        if err != nil {
            return fail(c, err)
        }
        path = &p
    }
    cat, err := h.Categories.Update(ctx, id, name, path)
    if err != nil {
        if path != nil {
            _ = h.Images.Remove(*path)
        }
        return fail(c, err)
    }
    if path != nil {
        _ = h.Images.Remove(old.ImagePath)
    }
    return c.JSON(http.StatusOK, cat)
}

// Delete handles DELETE /v1/categories/:id.  Categories with products are
// rejected with 409.
func (h *CategoryHandler) Delete(c echo.Context) error {
    id, ok := parseID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category id"})
    }
    cat, err := h.Categories.Delete(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    if err := h.Images.Remove(cat.ImagePath); err != nil {
        c.Logger().Warnf("remove category image %s: %v", cat.ImagePath, err)
    }
    return c.NoContent(http.StatusNoContent)
}
