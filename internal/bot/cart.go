package bot

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"

    "github.com/iliyamo/gusto-eats/internal/model"
    "github.com/iliyamo/gusto-eats/internal/repository"
)

// webAppData replaces the cart with the one sent by the catalogue page.
func (b *Bot) webAppData(ctx context.Context, chatID int64, s *Session, data string) {
    var payload struct {
        CartItems []CartItem `json:"cartItems"`
    }
    if err := json.Unmarshal([]byte(data), &payload); err != nil {
        b.Logger.Warnf("web app data from %d: %v", chatID, err)
        b.send(ctx, chatID, "Could not read your cart, please try again.", mainKeyboard(b.WebAppURL))
        return
    }
    cart := make([]CartItem, 0, len(payload.CartItems))
    for _, it := range payload.CartItems {
        if it.ID > 0 && it.Quantity > 0 {
            cart = append(cart, it)
        }
    }
    s.Cart, s.CartPage = cart, 1
    if len(cart) == 0 {
        b.send(ctx, chatID, "Your cart is empty.", mainKeyboard(b.WebAppURL))
        return
    }
    b.send(ctx, chatID, "The products were added to your cart.", cartAddedKeyboard())
}

// showCart renders one cart item per page (1-based).  replaceID, when set,
// is the message the new card replaces.
func (b *Bot) showCart(ctx context.Context, chatID int64, s *Session, page, replaceID int) string {
    if len(s.Cart) == 0 {
        return "Your cart is empty"
    }
    switch {
    case page < 1:
        return "You are on the first page"
    case page > len(s.Cart):
        return "You are on the last page"
    }
    s.CartPage = page
    it := s.Cart[page-1]
    caption := fmt.Sprintf("%s - %s\nQuantity: %d\nCart total: %s",
        it.Name, it.Price.StringFixed(2), it.Quantity, s.CartTotal().StringFixed(2))
    b.deleteMessage(ctx, chatID, replaceID)
    b.sendCard(ctx, chatID, it.ID, "", caption, cartKeyboard(page, len(s.Cart)))
    return ""
}

// changeQuantity applies "+" or "-" to the item on page.  "+" is capped at
// the product's current stock and "-" stops at one.
func (b *Bot) changeQuantity(ctx context.Context, chatID int64, msgID int, s *Session, dir string, page int) string {
    if page < 1 || page > len(s.Cart) {
        return "Cart item not found"
    }
    it := &s.Cart[page-1]
    switch dir {
    case "inc":
        p, err := b.Products.Get(ctx, it.ID)
        if err != nil {
            return "Product not found"
        }
        if it.Quantity >= p.CountInStock {
            return "Not enough stock"
        }
        it.Quantity++
    case "dec":
        if it.Quantity <= 1 {
            return ""
        }
        it.Quantity--
    default:
        return ""
    }
    return b.showCart(ctx, chatID, s, page, msgID)
}

func (b *Bot) removeFromCart(ctx context.Context, chatID int64, msgID int, s *Session, page int) string {
    if page < 1 || page > len(s.Cart) {
        b.deleteMessage(ctx, chatID, msgID)
        return "Cart item not found"
    }
    s.Cart = append(s.Cart[:page-1], s.Cart[page:]...)
    s.CartPage = 1
    if len(s.Cart) == 0 {
        b.deleteMessage(ctx, chatID, msgID)
        b.send(ctx, chatID, "Your cart is empty.", mainKeyboard(b.WebAppURL))
    } else {
        b.showCart(ctx, chatID, s, 1, msgID)
    }
    return "Removed from cart"
}

// buy places the cart as an order.  Prices come from the database inside
// the order transaction; the cart only contributes ids and quantities.
func (b *Bot) buy(ctx context.Context, chatID int64, s *Session) {
    u, err := b.Users.GetByChatID(ctx, chatID)
    if errors.Is(err, repository.ErrNotFound) {
        b.send(ctx, chatID, msgNotRegistered, mainKeyboard(b.WebAppURL))
        return
    }
    if err != nil {
        b.internalError(ctx, chatID, err)
        return
    }
    if len(s.Cart) == 0 {
        b.send(ctx, chatID, "Your cart is empty. Add products from the menu first.", mainKeyboard(b.WebAppURL))
        return
    }
    lines := make([]model.OrderLine, 0, len(s.Cart))
    for _, it := range s.Cart {
        lines = append(lines, model.OrderLine{ProductID: it.ID, Quantity: it.Quantity})
    }
    o, err := b.Orders.Place(ctx, u.ID, lines)
    if err != nil {
        b.orderFailed(ctx, chatID, err)
        return
    }
    s.Cart, s.CartPage = nil, 0
    b.send(ctx, chatID, fmt.Sprintf("Your order has been placed. Order ID: %d\nTotal: %s", o.ID, o.TotalPrice.StringFixed(2)),
        mainKeyboard(b.WebAppURL))
    if b.Events != nil {
        if err := b.Events.OrderPlaced(ctx, o); err != nil {
            b.Logger.Warnf("order %d event: %v", o.ID, err)
        }
    }
}

func (b *Bot) orderFailed(ctx context.Context, chatID int64, err error) {
    var se *repository.StockError
    switch {
    case errors.As(err, &se):
        b.send(ctx, chatID, fmt.Sprintf("Sorry, only %d of %q left. Adjust your cart and try again.", se.Available, se.Name), nil)
    case errors.Is(err, repository.ErrNotFound):
        b.send(ctx, chatID, "A product in your cart is no longer available.", nil)
    case errors.Is(err, repository.ErrInvalidQuantity), errors.Is(err, repository.ErrEmptyOrder):
        b.send(ctx, chatID, "Your cart has an invalid quantity, please update it.", nil)
    default:
        b.internalError(ctx, chatID, err)
    }
}
