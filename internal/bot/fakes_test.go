package bot

import (
    "context"
    "fmt"
    "sync"

    tgbot "github.com/go-telegram/bot"
    "github.com/go-telegram/bot/models"

    "github.com/iliyamo/gusto-eats/internal/model"
    "github.com/iliyamo/gusto-eats/internal/repository"
    "github.com/iliyamo/gusto-eats/internal/utils"
)

type sent struct {
    chatID int64
    text   string
    photo  string
    markup models.ReplyMarkup
}

type fakeAPI struct {
    mu       sync.Mutex
    nextID   int
    messages []sent
    edits    []*tgbot.EditMessageTextParams
    deleted  []int
    answers  []string
    photoErr error
}

func (f *fakeAPI) id() int {
    f.nextID++
    return 1000 + f.nextID
}

func (f *fakeAPI) SendMessage(_ context.Context, p *tgbot.SendMessageParams) (*models.Message, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.messages = append(f.messages, sent{chatID: p.ChatID.(int64), text: p.Text, markup: p.ReplyMarkup})
    return &models.Message{ID: f.id()}, nil
}

func (f *fakeAPI) SendPhoto(_ context.Context, p *tgbot.SendPhotoParams) (*models.Message, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.photoErr != nil {
        return nil, f.photoErr
    }
    var photo string
    switch in := p.Photo.(type) {
    case *models.InputFileString:
        photo = in.Data
    case *models.InputFileUpload:
        photo = "upload:" + in.Filename
    }
    f.messages = append(f.messages, sent{chatID: p.ChatID.(int64), text: p.Caption, photo: photo, markup: p.ReplyMarkup})
    return &models.Message{ID: f.id(), Photo: []models.PhotoSize{{FileID: "thumb"}, {FileID: "large-file-id"}}}, nil
}

func (f *fakeAPI) EditMessageText(_ context.Context, p *tgbot.EditMessageTextParams) (*models.Message, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.edits = append(f.edits, p)
    return &models.Message{ID: p.MessageID}, nil
}

func (f *fakeAPI) DeleteMessage(_ context.Context, p *tgbot.DeleteMessageParams) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.deleted = append(f.deleted, p.MessageID)
    return true, nil
}

func (f *fakeAPI) AnswerCallbackQuery(_ context.Context, p *tgbot.AnswerCallbackQueryParams) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.answers = append(f.answers, p.Text)
    return true, nil
}

func (f *fakeAPI) last() sent {
    f.mu.Lock()
    defer f.mu.Unlock()
    if len(f.messages) == 0 {
        return sent{}
    }
    return f.messages[len(f.messages)-1]
}

func (f *fakeAPI) lastAnswer() string {
    f.mu.Lock()
    defer f.mu.Unlock()
    if len(f.answers) == 0 {
        return ""
    }
    return f.answers[len(f.answers)-1]
}

type fakeUsers struct {
    byChat  map[int64]model.User
    created []repository.NewUser
    deleted []uint64
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byChat: map[int64]model.User{}} }

func (f *fakeUsers) Create(_ context.Context, in repository.NewUser, cost int) (model.User, error) {
    for _, u := range f.byChat {
        if u.PhoneNumber == in.PhoneNumber {
            return model.User{}, repository.ErrPhoneExists
        }
    }
    if in.ChatID != nil {
        if _, ok := f.byChat[*in.ChatID]; ok {
            return model.User{}, repository.ErrChatLinked
        }
    }
    hash, err := utils.HashPassword(in.Password, cost)
    if err != nil {
        return model.User{}, err
    }
    u := model.User{
        ID: uint64(len(f.created) + 1), ChatID: in.ChatID, PhoneNumber: in.PhoneNumber,
        FirstName: in.FirstName, LastName: in.LastName, Gender: in.Gender,
        PasswordHash: hash, IsActive: true,
    }
    f.created = append(f.created, in)
    if in.ChatID != nil {
        f.byChat[*in.ChatID] = u
    }
    return u, nil
}

func (f *fakeUsers) GetByChatID(_ context.Context, chatID int64) (model.User, error) {
    u, ok := f.byChat[chatID]
    if !ok {
        return u, repository.ErrUserNotFound
    }
    return u, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
    for chat, u := range f.byChat {
        if u.ID == id {
            delete(f.byChat, chat)
            f.deleted = append(f.deleted, id)
            return nil
        }
    }
    return repository.ErrUserNotFound
}

type fakeProducts struct {
    items   map[uint64]model.Product
    fileIDs map[uint64]string
}

func (f *fakeProducts) Get(_ context.Context, id uint64) (model.Product, error) {
    p, ok := f.items[id]
    if !ok {
        return p, repository.ErrProductNotFound
    }
    return p, nil
}

func (f *fakeProducts) SetTelegramFileID(_ context.Context, id uint64, fileID string) error {
    if f.fileIDs == nil {
        f.fileIDs = map[uint64]string{}
    }
    f.fileIDs[id] = fileID
    return nil
}

type fakeOrders struct {
    placeErr error
    placed   [][]model.OrderLine
    orders   []model.Order
}

func (f *fakeOrders) Place(_ context.Context, userID uint64, lines []model.OrderLine) (model.Order, error) {
    if f.placeErr != nil {
        return model.Order{}, f.placeErr
    }
    f.placed = append(f.placed, lines)
    o := model.Order{ID: uint64(100 + len(f.placed)), UserID: userID, Status: model.OrderPending}
    f.orders = append([]model.Order{o}, f.orders...)
    return o, nil
}

func (f *fakeOrders) GetForUser(_ context.Context, id, userID uint64) (model.Order, error) {
    for _, o := range f.orders {
        if o.ID == id {
            if o.UserID != userID {
                return model.Order{}, repository.ErrForbidden
            }
            return o, nil
        }
    }
    return model.Order{}, repository.ErrOrderNotFound
}

func (f *fakeOrders) ListByUser(_ context.Context, userID uint64) ([]model.Order, error) {
    var out []model.Order
    for _, o := range f.orders {
        if o.UserID == userID {
            out = append(out, o)
        }
    }
    return out, nil
}

type fakeEvents struct{ placed []uint64 }

func (f *fakeEvents) OrderPlaced(_ context.Context, o model.Order) error {
    f.placed = append(f.placed, o.ID)
    return nil
}

type fakeRegistrar struct {
    webhook  string
    commands []models.BotCommand
    err      error
}

func (f *fakeRegistrar) SetWebhook(_ context.Context, p *tgbot.SetWebhookParams) (bool, error) {
    if f.err != nil {
        return false, f.err
    }
    f.webhook = p.URL
    return true, nil
}

func (f *fakeRegistrar) SetMyCommands(_ context.Context, p *tgbot.SetMyCommandsParams) (bool, error) {
    f.commands = p.Commands
    return true, nil
}

const testChat int64 = 555

type harness struct {
    bot      *Bot
    api      *fakeAPI
    users    *fakeUsers
    products *fakeProducts
    orders   *fakeOrders
    events   *fakeEvents
    msgID    int
}

func newHarness() *harness {
    fileID := "cola-file"
    h := &harness{
        api:   &fakeAPI{},
        users: newFakeUsers(),
        products: &fakeProducts{items: map[uint64]model.Product{
            1: {ID: 1, Name: "Plov", CountInStock: 3},
            2: {ID: 2, Name: "Cola", CountInStock: 10, TelegramFileID: &fileID},
        }},
        orders: &fakeOrders{},
        events: &fakeEvents{},
    }
    h.bot = New(h.api, NewMemorySessions(), h.users, h.products, h.orders, "https://shop.example/", 4)
    h.bot.Events = h.events
    return h
}

func (h *harness) text(s string) {
    h.msgID++
    h.bot.HandleUpdate(context.Background(), &models.Update{Message: &models.Message{
        ID: h.msgID, Chat: models.Chat{ID: testChat}, From: &models.User{ID: testChat}, Text: s,
    }})
}

func (h *harness) message(m *models.Message) {
    h.msgID++
    m.ID = h.msgID
    m.Chat = models.Chat{ID: testChat}
    m.From = &models.User{ID: testChat}
    h.bot.HandleUpdate(context.Background(), &models.Update{Message: m})
}

func (h *harness) press(data string, msgID int) {
    h.bot.HandleUpdate(context.Background(), &models.Update{CallbackQuery: &models.CallbackQuery{
        ID:      fmt.Sprintf("cb-%d", msgID),
        From:    models.User{ID: testChat},
        Data:    data,
        Message: models.MaybeInaccessibleMessage{Message: &models.Message{ID: msgID, Chat: models.Chat{ID: testChat}}},
    }})
}

func (h *harness) session() Session {
    s, _ := h.bot.Sessions.Load(context.Background(), testChat)
    return s
}

func (h *harness) register(t interface{ Helper() }) model.User {
    t.Helper()
    u, _ := h.users.Create(context.Background(), repository.NewUser{
        ChatID: ptr(testChat), PhoneNumber: "998901234567", Password: "Secret1", FirstName: "Ali",
    }, 4)
    return u
}

func ptr[T any](v T) *T { return &v }
