package middleware

// identity.go exposes the caller identity stored by JWTAuth to handlers
// and to the other middleware.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(CtxUserID).(uint64)
    return id, ok && id > 0
}

// Role returns the authenticated user's role or "".
func Role(c echo.Context) string {
    r, _ := c.Get(CtxRole).(string)
    return r
}

// identityKey is the user id as a string, or "anon" for guests.
func identityKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
