// Package bot is the Telegram front-end.  Updates reach Bot.HandleUpdate
// through the webhook endpoint; conversation state (registration drafts,
// the web-app cart) lives in a SessionStore so any instance can serve a
// chat.
package bot

import (
    "context"
    "strconv"
    "strings"

    tgbot "github.com/go-telegram/bot"
    "github.com/go-telegram/bot/models"
    "github.com/labstack/gommon/log"

    "github.com/iliyamo/gusto-eats/internal/model"
    "github.com/iliyamo/gusto-eats/internal/repository"
)

// Messenger is the subset of the Bot API used here.  *tgbot.Bot
// satisfies it.
type Messenger interface {
    SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
    SendPhoto(ctx context.Context, params *tgbot.SendPhotoParams) (*models.Message, error)
    EditMessageText(ctx context.Context, params *tgbot.EditMessageTextParams) (*models.Message, error)
    DeleteMessage(ctx context.Context, params *tgbot.DeleteMessageParams) (bool, error)
    AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
}

type Users interface {
    Create(ctx context.Context, in repository.NewUser, cost int) (model.User, error)
    GetByChatID(ctx context.Context, chatID int64) (model.User, error)
    Delete(ctx context.Context, id uint64) error
}

type Products interface {
    Get(ctx context.Context, id uint64) (model.Product, error)
    SetTelegramFileID(ctx context.Context, id uint64, fileID string) error
}

// Orders is shared with the REST API so both front-ends place orders
// through the same transaction.
type Orders interface {
    Place(ctx context.Context, userID uint64, lines []model.OrderLine) (model.Order, error)
    GetForUser(ctx context.Context, id, userID uint64) (model.Order, error)
    ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
}

type OrderEvents interface {
    OrderPlaced(ctx context.Context, o model.Order) error
}

// PhotoUploader uploads a stored product image and returns its file id.
type PhotoUploader interface {
    SendProductPhoto(ctx context.Context, p model.Product, imagePath string) (string, error)
}

// Bot dispatches updates.  Events and Photos are optional.
type Bot struct {
    API        Messenger
    Sessions   SessionStore
    Users      Users
    Products   Products
    Orders     Orders
    Events     OrderEvents
    Photos     PhotoUploader
    WebAppURL  string
    BcryptCost int
    Logger     *log.Logger
}

func New(api Messenger, sessions SessionStore, users Users, products Products, orders Orders, webAppURL string, cost int) *Bot {
    return &Bot{
        API:        api,
        Sessions:   sessions,
        Users:      users,
        Products:   products,
        Orders:     orders,
        WebAppURL:  webAppURL,
        BcryptCost: cost,
        Logger:     log.New("bot"),
    }
}

// HandleUpdate processes one update.  Errors are reported to the chat and
// logged, never returned, so the webhook always acknowledges.
func (b *Bot) HandleUpdate(ctx context.Context, u *models.Update) {
    switch {
    case u.Message != nil:
        b.onMessage(ctx, u.Message)
    case u.CallbackQuery != nil:
        b.onCallback(ctx, u.CallbackQuery)
    }
}

func (b *Bot) load(ctx context.Context, chatID int64) Session {
    s, err := b.Sessions.Load(ctx, chatID)
    if err != nil {
        b.Logger.Warnf("load session %d: %v", chatID, err)
        return Session{}
    }
    return s
}

func (b *Bot) save(ctx context.Context, chatID int64, s Session) {
    if err := b.Sessions.Save(ctx, chatID, s); err != nil {
        b.Logger.Warnf("save session %d: %v", chatID, err)
    }
}

func (b *Bot) onMessage(ctx context.Context, m *models.Message) {
    chatID := m.Chat.ID
    s := b.load(ctx, chatID)
    if m.WebAppData != nil {
        b.webAppData(ctx, chatID, &s, m.WebAppData.Data)
    } else {
        b.onText(ctx, m, &s)
    }
    b.save(ctx, chatID, s)
}

// command strips the optional @botname suffix from a slash command.
func command(text string) string {
    if !strings.HasPrefix(text, "/") {
        return text
    }
    if i := strings.IndexAny(text, "@ "); i > 0 {
        return text[:i]
    }
    return text
}

func (b *Bot) onText(ctx context.Context, m *models.Message, s *Session) {
    chatID := m.Chat.ID
    switch command(strings.TrimSpace(m.Text)) {
    case "/start":
        s.reset()
        b.send(ctx, chatID, "Welcome to Gusto Eats! Pick something from the menu below.", mainKeyboard(b.WebAppURL))
    case "/my_info":
        b.myInfo(ctx, chatID)
    case "/register":
        b.startRegister(ctx, chatID, s)
    case "/cancel":
        s.reset()
        b.send(ctx, chatID, "Cancelled.", mainKeyboard(b.WebAppURL))
    case btnCart:
        if len(s.Cart) == 0 {
            b.send(ctx, chatID, "Your cart is empty.", nil)
            return
        }
        b.showCart(ctx, chatID, s, 1, 0)
    case btnOrders:
        b.showOrder(ctx, chatID, 1, 0)
    default:
        if !b.continueFlow(ctx, m, s) {
            b.send(ctx, chatID, "Send /start to open the menu.", nil)
        }
    }
}

// parseCallback splits "action:arg:arg".
func parseCallback(data string) (string, []string) {
    parts := strings.Split(data, ":")
    return parts[0], parts[1:]
}

func argInt(args []string, i int) (int, bool) {
    if i >= len(args) {
        return 0, false
    }
    n, err := strconv.Atoi(args[i])
    return n, err == nil
}

func (b *Bot) onCallback(ctx context.Context, q *models.CallbackQuery) {
    msg := q.Message.Message
    if msg == nil {
        b.answer(ctx, q.ID, "This message is too old, please send /start.")
        return
    }
    chatID, msgID := msg.Chat.ID, msg.ID
    s := b.load(ctx, chatID)
    toast := b.callback(ctx, chatID, msgID, &s, q.Data)
    b.save(ctx, chatID, s)
    b.answer(ctx, q.ID, toast)
}

// callback runs a button action and returns the toast shown to the user.
func (b *Bot) callback(ctx context.Context, chatID int64, msgID int, s *Session, data string) string {
    action, args := parseCallback(data)
    switch action {
    case "gender":
        return b.registerGender(ctx, chatID, msgID, s, args)
    case "delete_user":
        return b.deleteUserCallback(ctx, chatID, msgID, s, args)
    case "view_cart":
        if len(s.Cart) == 0 {
            return "Your cart is empty"
        }
        page := s.CartPage
        if page < 1 || page > len(s.Cart) {
            page = 1
        }
        return b.showCart(ctx, chatID, s, page, msgID)
    case "buy":
        b.deleteMessage(ctx, chatID, msgID)
        b.buy(ctx, chatID, s)
        return ""
    case "cart":
        page, _ := argInt(args, 0)
        return b.showCart(ctx, chatID, s, page, msgID)
    case "qty":
        page, _ := argInt(args, 1)
        if len(args) == 0 {
            return ""
        }
        return b.changeQuantity(ctx, chatID, msgID, s, args[0], page)
    case "cart_del":
        page, _ := argInt(args, 0)
        return b.removeFromCart(ctx, chatID, msgID, s, page)
    case "count":
        total, _ := argInt(args, 0)
        page, _ := argInt(args, 1)
        return "Page " + strconv.Itoa(page) + " of " + strconv.Itoa(total)
    case "order":
        page, _ := argInt(args, 0)
        return b.showOrder(ctx, chatID, page, msgID)
    case "items", "item":
        orderID, _ := argInt(args, 0)
        page, _ := argInt(args, 1)
        replace := msgID
        if action == "items" {
            // keep the order card and open items below it
            replace = 0
        }
        return b.showOrderItem(ctx, chatID, uint64(orderID), page, replace)
    }
    return ""
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, kb models.ReplyMarkup) {
    _, err := b.API.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: chatID, Text: text, ReplyMarkup: kb})
    if err != nil {
        b.Logger.Warnf("send message to %d: %v", chatID, err)
    }
}

func (b *Bot) deleteMessage(ctx context.Context, chatID int64, msgID int) {
    if msgID == 0 {
        return
    }
    if _, err := b.API.DeleteMessage(ctx, &tgbot.DeleteMessageParams{ChatID: chatID, MessageID: msgID}); err != nil {
        b.Logger.Debugf("delete message %d in %d: %v", msgID, chatID, err)
    }
}

func (b *Bot) answer(ctx context.Context, callbackID, text string) {
    _, err := b.API.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{CallbackQueryID: callbackID, Text: text})
    if err != nil {
        b.Logger.Debugf("answer callback: %v", err)
    }
}

// internalError logs err and tells the chat to retry later.
func (b *Bot) internalError(ctx context.Context, chatID int64, err error) {
    b.Logger.Errorf("chat %d: %v", chatID, err)
    b.send(ctx, chatID, "Something went wrong, please try again later.", mainKeyboard(b.WebAppURL))
}

// sendCard sends a product card as a photo when an image is available and
// as text otherwise.
func (b *Bot) sendCard(ctx context.Context, chatID int64, productID uint64, fileID, caption string, kb models.ReplyMarkup) {
    if fileID == "" {
        fileID = b.photoFor(ctx, productID)
    }
    if fileID != "" {
        _, err := b.API.SendPhoto(ctx, &tgbot.SendPhotoParams{
            ChatID:      chatID,
            Photo:       &models.InputFileString{Data: fileID},
            Caption:     caption,
            ReplyMarkup: kb,
        })
        if err == nil {
            return
        }
        b.Logger.Warnf("send photo for product %d: %v", productID, err)
    }
    b.send(ctx, chatID, caption, kb)
}

// photoFor returns the product's Telegram file id, uploading the stored
// image first when none has been assigned yet.
func (b *Bot) photoFor(ctx context.Context, productID uint64) string {
    p, err := b.Products.Get(ctx, productID)
    if err != nil {
        return ""
    }
    if p.TelegramFileID != nil && *p.TelegramFileID != "" {
        return *p.TelegramFileID
    }
    if b.Photos == nil || p.ImagePath == "" {
        return ""
    }
    id, err := b.Photos.SendProductPhoto(ctx, p, p.ImagePath)
    if err != nil {
        b.Logger.Warnf("upload photo for product %d: %v", p.ID, err)
        return ""
    }
    if err := b.Products.SetTelegramFileID(ctx, p.ID, id); err != nil {
        b.Logger.Warnf("store file id for product %d: %v", p.ID, err)
    }
    return id
}
