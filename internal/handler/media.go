package handler

import (
    "errors"
    "net/http"
    "os"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/gusto-eats/internal/utils"
)

// MediaHandler serves uploaded images from the media root.
type MediaHandler struct {
    Images utils.ImageStore
}

func NewMediaHandler(images utils.ImageStore) *MediaHandler { return &MediaHandler{Images: images} }

// Serve handles GET /media/*.
func (h *MediaHandler) Serve(c echo.Context) error {
    full, err := h.Images.Resolve(c.Param("*"))
    if errors.Is(err, utils.ErrPathEscape) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
    }
    if err != nil {
        return fail(c, err)
    }
    fi, err := os.Stat(full)
    if err != nil || fi.IsDir() {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "file not found"})
    }
    return c.File(full)
}
