package handler

import (
    "bytes"
    "context"
    "embed"
    "html/template"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/gusto-eats/internal/model"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Catalog is the read side of the menu used by the web app page.
type Catalog interface {
    List(ctx context.Context) ([]model.Category, error)
}

type ProductLister interface {
    List(ctx context.Context, categoryID uint64) ([]model.Product, error)
}

type menuSection struct {
    model.Category
    Products []model.Product
}

// IndexHandler renders the web app catalogue opened from the bot's
// "Foods" button.  Checkout posts the cart back to the bot with
// Telegram.WebApp.sendData.
type IndexHandler struct {
    Categories Catalog
    Products   ProductLister
}

func NewIndexHandler(cs Catalog, ps ProductLister) *IndexHandler {
    return &IndexHandler{Categories: cs, Products: ps}
}

// Index handles GET /.
func (h *IndexHandler) Index(c echo.Context) error {
    ctx := c.Request().Context()
    cats, err := h.Categories.List(ctx)
    if err != nil {
        return fail(c, err)
    }
    products, err := h.Products.List(ctx, 0)
    if err != nil {
        return fail(c, err)
    }
    byCat := make(map[uint64][]model.Product)
    for _, p := range products {
        byCat[p.CategoryID] = append(byCat[p.CategoryID], p)
    }
    sections := make([]menuSection, 0, len(cats))
    for _, cat := range cats {
        if len(byCat[cat.ID]) == 0 {
            continue
        }
        sections = append(sections, menuSection{Category: cat, Products: byCat[cat.ID]})
    }
    var buf bytes.Buffer
    if err := indexTmpl.Execute(&buf, echo.Map{"Categories": sections}); err != nil {
        return fail(c, err)
    }
    return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
