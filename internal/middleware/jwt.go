package middleware

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/gusto-eats/internal/utils"
)

// Context keys populated by JWTAuth.
const (
    CtxUserID   = "user_id"   // uint64
    CtxRole     = "role"      // string
    CtxToken    = "token"     // raw bearer token
    CtxTokenExp = "token_exp" // time.Time
)

// Blacklist answers whether an access token digest has been revoked.
type Blacklist interface {
    IsBlacklisted(ctx context.Context, tokenHash string) (bool, error)
}

// JWTAuth validates the bearer token, rejects revoked tokens and stores
// the caller's identity in the context.  bl may be nil when revocation is
// not in use.
func JWTAuth(secret string, bl Blacklist) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            if bl != nil {
                revoked, err := bl.IsBlacklisted(c.Request().Context(), utils.HashToken(raw))
                if err != nil {
                    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token check failed"})
                }
                if revoked {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token revoked"})
                }
            }

            c.Set(CtxUserID, claims.UserID)
            c.Set(CtxRole, claims.Role)
            c.Set(CtxToken, raw)
            c.Set(CtxTokenExp, claims.Exp)
            return next(c)
        }
    }
}
