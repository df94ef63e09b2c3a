package handler

import (
    "context"
    "crypto/subtle"
    "net/http"
    "time"

    "github.com/go-telegram/bot/models"
    "github.com/labstack/echo/v4"
)

// UpdateHandler consumes Telegram updates.
type UpdateHandler interface {
    HandleUpdate(ctx context.Context, u *models.Update)
}

// WebhookHandler receives Telegram webhook calls at /bot/:token.
type WebhookHandler struct {
    Token   string
    Updates UpdateHandler
}

func NewWebhookHandler(token string, u UpdateHandler) *WebhookHandler {
    return &WebhookHandler{Token: token, Updates: u}
}

// Receive acknowledges every well-formed update with 200 so Telegram does
// not redeliver it; failures inside the bot are reported to the chat.
func (h *WebhookHandler) Receive(c echo.Context) error {
    if h.Token == "" || subtle.ConstantTimeCompare([]byte(c.Param("token")), []byte(h.Token)) != 1 {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }
    var u models.Update
    if err := c.Bind(&u); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid update"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()
    h.Updates.HandleUpdate(ctx, &u)
    return c.NoContent(http.StatusOK)
}
