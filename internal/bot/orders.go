package bot

import (
    "context"
    "errors"
    "fmt"

    tgbot "github.com/go-telegram/bot"

    "github.com/iliyamo/gusto-eats/internal/model"
    "github.com/iliyamo/gusto-eats/internal/repository"
)

// chatUser resolves the account linked to chatID, telling the chat how to
// register when there is none.
func (b *Bot) chatUser(ctx context.Context, chatID int64) (model.User, bool) {
    u, err := b.Users.GetByChatID(ctx, chatID)
    if errors.Is(err, repository.ErrNotFound) {
        b.send(ctx, chatID, msgNotRegistered, mainKeyboard(b.WebAppURL))
        return u, false
    }
    if err != nil {
        b.internalError(ctx, chatID, err)
        return u, false
    }
    return u, true
}

// showOrder renders the page-th order (newest first).  editID, when set,
// is edited in place.
func (b *Bot) showOrder(ctx context.Context, chatID int64, page, editID int) string {
    u, ok := b.chatUser(ctx, chatID)
    if !ok {
        return ""
    }
    orders, err := b.Orders.ListByUser(ctx, u.ID)
    if err != nil {
        b.internalError(ctx, chatID, err)
        return ""
    }
    if len(orders) == 0 {
        b.send(ctx, chatID, "You have no orders yet.", nil)
        return ""
    }
    switch {
    case page < 1:
        return "You are on the first page"
    case page > len(orders):
        return "You are on the last page"
    }
    o := orders[page-1]
    text := fmt.Sprintf("📦 Order ID: %d\n🔄 Status: %s\n💰 Total: %s\n📅 Date: %s",
        o.ID, o.Status, o.TotalPrice.StringFixed(2), o.CreatedAt.Format("2006-01-02 15:04:05"))
    kb := orderKeyboard(o.ID, page, len(orders))
    if editID == 0 {
        b.send(ctx, chatID, text, kb)
        return ""
    }
    _, err = b.API.EditMessageText(ctx, &tgbot.EditMessageTextParams{
        ChatID:      chatID,
        MessageID:   editID,
        Text:        text,
        ReplyMarkup: kb,
    })
    if err != nil {
        b.Logger.Warnf("edit order card in %d: %v", chatID, err)
    }
    return ""
}

// showOrderItem renders one item of an order the chat's user owns.
func (b *Bot) showOrderItem(ctx context.Context, chatID int64, orderID uint64, page, replaceID int) string {
    u, ok := b.chatUser(ctx, chatID)
    if !ok {
        return ""
    }
    o, err := b.Orders.GetForUser(ctx, orderID, u.ID)
    if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrForbidden) {
        return "Order not found"
    }
    if err != nil {
        b.internalError(ctx, chatID, err)
        return ""
    }
    switch {
    case len(o.Items) == 0:
        return "The order has no items"
    case page < 1:
        return "You are on the first page"
    case page > len(o.Items):
        return "You are on the last page"
    }
    it := o.Items[page-1]
    caption := fmt.Sprintf("%s - %s\nQuantity: %d\nSubtotal: %s",
        it.ProductName, it.UnitPrice.StringFixed(2), it.Quantity, it.Subtotal().StringFixed(2))
    b.deleteMessage(ctx, chatID, replaceID)
    b.sendCard(ctx, chatID, it.ProductID, it.FileID, caption, orderItemKeyboard(orderID, page, len(o.Items)))
    return ""
}
