package middleware

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
)

// ActiveUsers answers whether an account may still use its tokens.
type ActiveUsers interface {
    IsActive(ctx context.Context, id uint64) (bool, error)
}

// RequireActive rejects callers whose account was disabled or deleted after
// their access token was issued.  It must run after JWTAuth.
func RequireActive(users ActiveUsers) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := UserID(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
            }
            active, err := users.IsActive(c.Request().Context(), id)
            if err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "account check failed"})
            }
            if !active {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
            }
            return next(c)
        }
    }
}
