package bot

import (
    "context"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    tgbot "github.com/go-telegram/bot"
    "github.com/go-telegram/bot/models"
    "github.com/labstack/gommon/log"

    "github.com/iliyamo/gusto-eats/internal/model"
    "github.com/iliyamo/gusto-eats/internal/queue"
    "github.com/iliyamo/gusto-eats/internal/utils"
)

// ErrNoOwnerChat is returned when OWNER_CHAT_ID is not configured.
var ErrNoOwnerChat = errors.New("owner chat not configured")

// Notifier sends shop-owner messages: product photos on creation (which
// also yields the Telegram file id reused by the bot) and order summaries
// from the order.placed consumer.
type Notifier struct {
    API         Messenger
    OwnerChatID int64
    Images      utils.ImageStore
    Logger      *log.Logger
}

func NewNotifier(api Messenger, ownerChatID int64, images utils.ImageStore) *Notifier {
    return &Notifier{API: api, OwnerChatID: ownerChatID, Images: images, Logger: log.New("notifier")}
}

// SendProductPhoto uploads the image at imagePath to the owner chat and
// returns the file id of the largest size Telegram produced.
func (n *Notifier) SendProductPhoto(ctx context.Context, p model.Product, imagePath string) (string, error) {
    if n.OwnerChatID == 0 {
        return "", ErrNoOwnerChat
    }
    abs, err := n.Images.Resolve(imagePath)
    if err != nil {
        return "", err
    }
    f, err := os.Open(abs)
    if err != nil {
        return "", err
    }
    defer f.Close()

    msg, err := n.API.SendPhoto(ctx, &tgbot.SendPhotoParams{
        ChatID:  n.OwnerChatID,
        Photo:   &models.InputFileUpload{Filename: filepath.Base(abs), Data: f},
        Caption: fmt.Sprintf("%s - %s", p.Name, p.DiscountedPrice.StringFixed(2)),
    })
    if err != nil {
        return "", fmt.Errorf("send photo: %w", err)
    }
    if len(msg.Photo) == 0 {
        return "", errors.New("send photo: response has no photo sizes")
    }
    return msg.Photo[len(msg.Photo)-1].FileID, nil
}

// NotifyOrder implements queue.Notifier.  Without an owner chat the event
// is only logged.
func (n *Notifier) NotifyOrder(ctx context.Context, ev queue.OrderPlacedEvent) error {
    if n.OwnerChatID == 0 {
        n.Logger.Infof("order %d placed (no owner chat configured)", ev.OrderID)
        return nil
    }
    _, err := n.API.SendMessage(ctx, &tgbot.SendMessageParams{ChatID: n.OwnerChatID, Text: ev.Summary()})
    return err
}

// Registrar is the part of the Bot API used at startup.
type Registrar interface {
    SetWebhook(ctx context.Context, params *tgbot.SetWebhookParams) (bool, error)
    SetMyCommands(ctx context.Context, params *tgbot.SetMyCommandsParams) (bool, error)
}

// Commands are published to Telegram's command menu.
var Commands = []models.BotCommand{
    {Command: "start", Description: "Open the menu"},
    {Command: "my_info", Description: "Show my profile"},
    {Command: "register", Description: "Sign up"},
}

// WebhookURL is where Telegram delivers updates for token.
func WebhookURL(base, token string) string {
    return strings.TrimRight(base, "/") + "/bot/" + token
}

// Register points the webhook at baseURL and publishes Commands.
func Register(ctx context.Context, api Registrar, baseURL, token string) error {
    if _, err := api.SetWebhook(ctx, &tgbot.SetWebhookParams{URL: WebhookURL(baseURL, token)}); err != nil {
        return fmt.Errorf("set webhook: %w", err)
    }
    if _, err := api.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: Commands}); err != nil {
        return fmt.Errorf("set commands: %w", err)
    }
    return nil
}

// NewClient builds the API client.  GetMe is skipped so startup does not
// depend on reaching Telegram.
func NewClient(token string) (*tgbot.Bot, error) {
    return tgbot.New(token, tgbot.WithSkipGetMe())
}
