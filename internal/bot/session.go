package bot

import (
    "context"
    "encoding/json"
    "errors"
    "strconv"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/shopspring/decimal"
)

// Conversation states.  The empty state means no flow is in progress.
const (
    stateNone           = ""
    stateFirstName      = "register:first_name"
    stateLastName       = "register:last_name"
    stateGender         = "register:gender"
    statePassword       = "register:password"
    statePhone          = "register:phone"
    stateConfirm        = "register:confirm"
    stateDeleteConfirm  = "delete:confirm"
    stateDeletePassword = "delete:password"
)

// sessionTTL bounds how long an idle cart or half-finished registration
// survives.
const sessionTTL = 24 * time.Hour

// CartItem is one line of the web-app cart.  Price is what the catalogue
// page showed; orders are always priced from the database.
type CartItem struct {
    ID       uint64          `json:"id"`
    Name     string          `json:"name"`
    Price    decimal.Decimal `json:"price"`
    Quantity int             `json:"quantity"`
}

// Draft accumulates registration answers.
type Draft struct {
    FirstName string `json:"first_name,omitempty"`
    LastName  string `json:"last_name,omitempty"`
    Gender    string `json:"gender,omitempty"`
    Password  string `json:"password,omitempty"`
    Phone     string `json:"phone,omitempty"`
}

// Session is the per-chat conversation state.
type Session struct {
    State    string     `json:"state,omitempty"`
    Draft    Draft      `json:"draft"`
    Cart     []CartItem `json:"cart,omitempty"`
    CartPage int        `json:"cart_page,omitempty"`
}

// CartTotal sums price*quantity over the cart.
func (s Session) CartTotal() decimal.Decimal {
    total := decimal.Zero
    for _, it := range s.Cart {
        total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
    }
    return total
}

// reset drops any in-progress flow but keeps the cart.
func (s *Session) reset() {
    s.State = stateNone
    s.Draft = Draft{}
}

// SessionStore persists sessions keyed by chat id.  Load returns a zero
// Session for unknown chats.
type SessionStore interface {
    Load(ctx context.Context, chatID int64) (Session, error)
    Save(ctx context.Context, chatID int64, s Session) error
}

// RedisSessions keeps sessions as JSON strings with a sliding TTL.
type RedisSessions struct {
    rdb    *redis.Client
    prefix string
}

func NewRedisSessions(rdb *redis.Client) *RedisSessions {
    return &RedisSessions{rdb: rdb, prefix: "bot:session:"}
}

func (r *RedisSessions) key(chatID int64) string {
    return r.prefix + strconv.FormatInt(chatID, 10)
}

func (r *RedisSessions) Load(ctx context.Context, chatID int64) (Session, error) {
    var s Session
    bs, err := r.rdb.Get(ctx, r.key(chatID)).Bytes()
    if errors.Is(err, redis.Nil) {
        return s, nil
    }
    if err != nil {
        return s, err
    }
    err = json.Unmarshal(bs, &s)
    return s, err
}

func (r *RedisSessions) Save(ctx context.Context, chatID int64, s Session) error {
    bs, err := json.Marshal(s)
    if err != nil {
        return err
    }
    return r.rdb.Set(ctx, r.key(chatID), bs, sessionTTL).Err()
}

// MemorySessions is used when Redis is unavailable.  Sessions are lost on
// restart and are not shared between instances.
type MemorySessions struct {
    mu sync.Mutex
    m  map[int64]Session
}

func NewMemorySessions() *MemorySessions {
    return &MemorySessions{m: make(map[int64]Session)}
}

func (m *MemorySessions) Load(_ context.Context, chatID int64) (Session, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s := m.m[chatID]
    s.Cart = append([]CartItem(nil), s.Cart...)
    return s, nil
}

func (m *MemorySessions) Save(_ context.Context, chatID int64, s Session) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    s.Cart = append([]CartItem(nil), s.Cart...)
    m.m[chatID] = s
    return nil
}

// NewSessionStore picks Redis when a client is available.
func NewSessionStore(rdb *redis.Client) SessionStore {
    if rdb == nil {
        return NewMemorySessions()
    }
    return NewRedisSessions(rdb)
}
