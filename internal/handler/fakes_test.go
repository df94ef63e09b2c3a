package handler

import (
    "context"
    "sync"
    "time"

    "github.com/go-telegram/bot/models"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/gusto-eats/internal/model"
    "github.com/iliyamo/gusto-eats/internal/repository"
    "github.com/iliyamo/gusto-eats/internal/utils"
)

type fakeUsers struct {
    mu    sync.Mutex
    next  uint64
    users map[uint64]model.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[uint64]model.User{}} }

func (f *fakeUsers) Create(_ context.Context, in repository.NewUser, cost int) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, u := range f.users {
        if u.PhoneNumber == in.PhoneNumber {
            return model.User{}, repository.ErrPhoneExists
        }
    }
    hash, err := utils.HashPassword(in.Password, cost)
    if err != nil {
        return model.User{}, err
    }
    f.next++
    u := model.User{
        ID: f.next, ChatID: in.ChatID, PhoneNumber: in.PhoneNumber, FirstName: in.FirstName, LastName: in.LastName,
        Gender: in.Gender, PasswordHash: hash, IsActive: true, IsStaff: in.IsStaff, IsSuperuser: in.IsSuperuser,
    }
    f.users[u.ID] = u
    return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.users[id]
    if !ok {
        return u, repository.ErrUserNotFound
    }
    return u, nil
}

func (f *fakeUsers) GetByPhone(_ context.Context, phone string) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for _, u := range f.users {
        if u.PhoneNumber == phone {
            return u, nil
        }
    }
    return model.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) List(_ context.Context, skip, limit int) ([]model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := []model.User{}
    for id := uint64(1); id <= f.next; id++ {
        if u, ok := f.users[id]; ok {
            out = append(out, u)
        }
    }
    if skip > len(out) {
        skip = len(out)
    }
    out = out[skip:]
    if limit < len(out) {
        out = out[:limit]
    }
    return out, nil
}

func (f *fakeUsers) Update(_ context.Context, id uint64, p repository.UserPatch, cost int) (model.User, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    u, ok := f.users[id]
    if !ok {
        return u, repository.ErrUserNotFound
    }
    if p.FirstName != nil {
        u.FirstName = *p.FirstName
    }
    if p.IsStaff != nil {
        u.IsStaff = *p.IsStaff
    }
    if p.IsActive != nil {
        u.IsActive = *p.IsActive
    }
    f.users[id] = u
    return u, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.users[id]; !ok {
        return repository.ErrUserNotFound
    }
    delete(f.users, id)
    return nil
}

type fakeTokens struct {
    mu          sync.Mutex
    refresh     map[string]uint64
    revoked     map[string]bool
    blacklisted map[string]bool
    revokedAll  []uint64
}

func newFakeTokens() *fakeTokens {
    return &fakeTokens{refresh: map[string]uint64{}, revoked: map[string]bool{}, blacklisted: map[string]bool{}}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, uid uint64, h string, _ time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.refresh[h] = uid
    return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, h string) (uint64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    uid, ok := f.refresh[h]
    if !ok || f.revoked[h] {
        return 0, repository.ErrRefreshInvalid
    }
    return uid, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, _ uint64, h string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.revoked[h] = true
    return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, uid uint64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.revokedAll = append(f.revokedAll, uid)
    return nil
}

func (f *fakeTokens) Blacklist(_ context.Context, h string, _ time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.blacklisted[h] = true
    return nil
}

func (f *fakeTokens) IsBlacklisted(_ context.Context, h string) (bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.blacklisted[h], nil
}

type fakeCatalog struct {
    categories []model.Category
    products   map[uint64]model.Product
    fileIDs    map[uint64]string
    orderRefs  map[uint64]bool
}

func newFakeCatalog() *fakeCatalog {
    return &fakeCatalog{
        categories: []model.Category{{ID: 1, Name: "Meals", ImagePath: "categories/m.png"}},
        products:   map[uint64]model.Product{},
        fileIDs:    map[uint64]string{},
        orderRefs:  map[uint64]bool{},
    }
}

func (f *fakeCatalog) Create(_ context.Context, in repository.NewProduct) (model.Product, error) {
    if in.CategoryID != 1 {
        return model.Product{}, repository.ErrCategoryNotFound
    }
    p := model.Product{
        ID: uint64(len(f.products) + 1), CategoryID: in.CategoryID, Name: in.Name, Description: in.Description,
        Type: in.Type, Price: in.Price, Discount: in.Discount, DiscountedPrice: model.DiscountedPrice(in.Price, in.Discount),
        CountInStock: in.CountInStock, ImagePath: in.ImagePath,
    }
    f.products[p.ID] = p
    return p, nil
}

func (f *fakeCatalog) Get(_ context.Context, id uint64) (model.Product, error) {
    p, ok := f.products[id]
    if !ok {
        return p, repository.ErrProductNotFound
    }
    return p, nil
}

func (f *fakeCatalog) GetDetail(ctx context.Context, id uint64) (model.ProductDetail, error) {
    p, err := f.Get(ctx, id)
    return model.ProductDetail{Product: p, Reviews: []model.Review{}}, err
}

func (f *fakeCatalog) List(_ context.Context, categoryID uint64) ([]model.Product, error) {
    out := []model.Product{}
    for id := uint64(1); id <= uint64(len(f.products)); id++ {
        if p, ok := f.products[id]; ok && (categoryID == 0 || p.CategoryID == categoryID) {
            out = append(out, p)
        }
    }
    return out, nil
}

func (f *fakeCatalog) TopRated(ctx context.Context, limit int) ([]model.Product, error) {
    return f.List(ctx, 0)
}

func (f *fakeCatalog) Update(_ context.Context, id uint64, p repository.ProductPatch) (model.Product, error) {
    cur, ok := f.products[id]
    if !ok {
        return cur, repository.ErrProductNotFound
    }
    if p.Price != nil {
        cur.Price = *p.Price
    }
    if p.Discount != nil {
        cur.Discount = *p.Discount
    }
    if p.ImagePath != nil {
        cur.ImagePath = *p.ImagePath
    }
    cur.DiscountedPrice = model.DiscountedPrice(cur.Price, cur.Discount)
    f.products[id] = cur
    return cur, nil
}

func (f *fakeCatalog) Delete(_ context.Context, id uint64) (model.Product, error) {
    p, ok := f.products[id]
    if !ok {
        return p, repository.ErrProductNotFound
    }
    if f.orderRefs[id] {
        return p, repository.ErrConflict
    }
    delete(f.products, id)
    return p, nil
}

func (f *fakeCatalog) SetTelegramFileID(_ context.Context, id uint64, fileID string) error {
    f.fileIDs[id] = fileID
    return nil
}

// categoryView adapts fakeCatalog to Catalog.
type categoryView struct{ *fakeCatalog }

func (v categoryView) List(context.Context) ([]model.Category, error) { return v.categories, nil }

type fakePhotos struct {
    sent []string
    err  error
}

func (f *fakePhotos) SendProductPhoto(_ context.Context, p model.Product, path string) (string, error) {
    if f.err != nil {
        return "", f.err
    }
    f.sent = append(f.sent, path)
    return "file-" + p.Name, nil
}

type fakeOrders struct {
    placeErr error
    placed   []model.OrderLine
    orders   map[uint64]model.Order
    status   map[uint64]string
}

func (f *fakeOrders) Place(_ context.Context, uid uint64, lines []model.OrderLine) (model.Order, error) {
    if f.placeErr != nil {
        return model.Order{}, f.placeErr
    }
    f.placed = lines
    return model.Order{ID: 1, UserID: uid, Status: model.OrderPending, TotalPrice: decimal.NewFromInt(10)}, nil
}

func (f *fakeOrders) Get(_ context.Context, id uint64) (model.Order, error) {
    o, ok := f.orders[id]
    if !ok {
        return o, repository.ErrOrderNotFound
    }
    return o, nil
}

func (f *fakeOrders) GetForUser(ctx context.Context, id, uid uint64) (model.Order, error) {
    o, err := f.Get(ctx, id)
    if err == nil && o.UserID != uid {
        return model.Order{}, repository.ErrForbidden
    }
    return o, err
}

func (f *fakeOrders) ListByUser(_ context.Context, uid uint64) ([]model.Order, error) {
    out := []model.Order{}
    for _, o := range f.orders {
        if o.UserID == uid {
            out = append(out, o)
        }
    }
    return out, nil
}

func (f *fakeOrders) ListAll(context.Context, int, int) ([]model.Order, error) {
    out := []model.Order{}
    for _, o := range f.orders {
        out = append(out, o)
    }
    return out, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id uint64, status string) (model.Order, error) {
    o, ok := f.orders[id]
    if !ok {
        return o, repository.ErrOrderNotFound
    }
    if !model.CanTransition(o.Status, status) {
        return o, repository.ErrInvalidTransition
    }
    o.Status = status
    f.orders[id] = o
    return o, nil
}

func (f *fakeOrders) Delete(_ context.Context, id uint64) error {
    if _, ok := f.orders[id]; !ok {
        return repository.ErrOrderNotFound
    }
    delete(f.orders, id)
    return nil
}

type fakeEvents struct{ placed []uint64 }

func (f *fakeEvents) OrderPlaced(_ context.Context, o model.Order) error {
    f.placed = append(f.placed, o.ID)
    return nil
}

type fakeReviews struct {
    seen map[[2]uint64]bool
}

func (f *fakeReviews) Create(_ context.Context, uid uint64, in repository.NewReview) (model.Review, error) {
    if in.ProductID != 1 {
        return model.Review{}, repository.ErrProductNotFound
    }
    key := [2]uint64{uid, in.ProductID}
    if f.seen[key] {
        return model.Review{}, repository.ErrDuplicateReview
    }
    f.seen[key] = true
    return model.Review{ID: 1, ProductID: in.ProductID, UserID: uid, Name: in.Name, Rating: in.Rating}, nil
}

func (f *fakeReviews) ListByProduct(context.Context, uint64) ([]model.Review, error) {
    return []model.Review{}, nil
}

type recordingUpdates struct{ got []*models.Update }

func (r *recordingUpdates) HandleUpdate(_ context.Context, u *models.Update) { r.got = append(r.got, u) }
