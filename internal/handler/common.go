package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/gusto-eats/internal/middleware"
    "github.com/iliyamo/gusto-eats/internal/model"
    "github.com/iliyamo/gusto-eats/internal/repository"
    "github.com/iliyamo/gusto-eats/internal/utils"
)

// The interfaces below are the slices of the repositories each handler
// needs; *repository.XRepo satisfies them and tests substitute fakes.

type UserStore interface {
    Create(ctx context.Context, in repository.NewUser, cost int) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
    GetByPhone(ctx context.Context, phone string) (model.User, error)
    List(ctx context.Context, skip, limit int) ([]model.User, error)
    Update(ctx context.Context, id uint64, p repository.UserPatch, cost int) (model.User, error)
    Delete(ctx context.Context, id uint64) error
}

type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, userID uint64, tokenHash string) error
    RevokeAllForUser(ctx context.Context, userID uint64) error
    Blacklist(ctx context.Context, tokenHash string, exp time.Time) error
}

type CategoryStore interface {
    Create(ctx context.Context, name, imagePath string) (model.Category, error)
    Get(ctx context.Context, id uint64) (model.Category, error)
    List(ctx context.Context) ([]model.Category, error)
    Update(ctx context.Context, id uint64, name, imagePath *string) (model.Category, error)
    Delete(ctx context.Context, id uint64) (model.Category, error)
}

type ProductStore interface {
    Create(ctx context.Context, in repository.NewProduct) (model.Product, error)
    Get(ctx context.Context, id uint64) (model.Product, error)
    GetDetail(ctx context.Context, id uint64) (model.ProductDetail, error)
    List(ctx context.Context, categoryID uint64) ([]model.Product, error)
    TopRated(ctx context.Context, limit int) ([]model.Product, error)
    Update(ctx context.Context, id uint64, p repository.ProductPatch) (model.Product, error)
    Delete(ctx context.Context, id uint64) (model.Product, error)
    SetTelegramFileID(ctx context.Context, id uint64, fileID string) error
}

type ReviewStore interface {
    Create(ctx context.Context, userID uint64, in repository.NewReview) (model.Review, error)
    ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error)
}

type OrderStore interface {
    Place(ctx context.Context, userID uint64, lines []model.OrderLine) (model.Order, error)
    Get(ctx context.Context, id uint64) (model.Order, error)
    GetForUser(ctx context.Context, id, userID uint64) (model.Order, error)
    ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
    ListAll(ctx context.Context, skip, limit int) ([]model.Order, error)
    UpdateStatus(ctx context.Context, id uint64, status string) (model.Order, error)
    Delete(ctx context.Context, id uint64) error
}

// OrderEvents is told about every committed order.
type OrderEvents interface {
    OrderPlaced(ctx context.Context, o model.Order) error
}

// PhotoSender delivers a stored image to the owner chat and returns the
// Telegram file id assigned to it.
type PhotoSender interface {
    SendProductPhoto(ctx context.Context, p model.Product, imagePath string) (string, error)
}

// getUserID returns the caller id placed in the context by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
    id, ok := middleware.UserID(c)
    if !ok {
        return 0, errors.New("missing user id")
    }
    return id, nil
}

func isAdmin(c echo.Context) bool { return middleware.Role(c) == model.RoleAdmin }

func parseID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}

// page reads ?skip and ?limit with limit defaulting to 100 and capped at 500.
func page(c echo.Context) (skip, limit int) {
    skip, _ = strconv.Atoi(c.QueryParam("skip"))
    if skip < 0 {
        skip = 0
    }
    limit, err := strconv.Atoi(c.QueryParam("limit"))
    if err != nil || limit <= 0 {
        limit = 100
    }
    if limit > 500 {
        limit = 500
    }
    return skip, limit
}

// fail maps repository and validation errors to JSON responses.  Unknown
// errors are logged and reported as 500 with a generic message.
func fail(c echo.Context, err error) error {
    var se *repository.StockError
    switch {
    case errors.As(err, &se):
        return c.JSON(http.StatusConflict, echo.Map{"error": se.Error(), "product_id": se.ProductID, "available": se.Available})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrInvalidQuantity), errors.Is(err, repository.ErrEmptyOrder),
        errors.Is(err, utils.ErrImageTooLarge), errors.Is(err, utils.ErrImageType):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
