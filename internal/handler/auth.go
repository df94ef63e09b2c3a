package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/gusto-eats/internal/config"
    "github.com/iliyamo/gusto-eats/internal/middleware"
    "github.com/iliyamo/gusto-eats/internal/model"
    "github.com/iliyamo/gusto-eats/internal/repository"
    "github.com/iliyamo/gusto-eats/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
    PhoneNumber string `json:"phone_number"`
    Password    string `json:"password"`
    FirstName   string `json:"first_name"`
    LastName    string `json:"last_name"`
    Gender      string `json:"gender"`
}
type loginReq struct {
    PhoneNumber string `json:"phone_number"`
    Password    string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type authResp struct {
    User    model.User `json:"user"`
    Role    string     `json:"role"`
    Access  tokenPart  `json:"access"`
    Refresh tokenPart  `json:"refresh"`
}

// checkCredentials validates the phone/password pair shared by the
// register-style endpoints and returns the normalized phone.
func checkCredentials(phone, password string) (string, string) {
    phone = utils.NormalizePhone(phone)
    if !utils.ValidPhone(phone) {
        return "", "phone_number must be 998 followed by 9 digits"
    }
    if !utils.StrongPassword(password) {
        return "", "password must be at least 6 characters with upper, lower case letters and a digit"
    }
    return phone, ""
}

func normalizeGender(g string) (string, bool) {
    g = strings.ToUpper(strings.TrimSpace(g))
    switch g {
    case "", model.GenderMale, model.GenderFemale:
        return g, true
    }
    return "", false
}

// issue creates a fresh access/refresh pair for u.
func (h *AuthHandler) issue(ctx context.Context, u model.User) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role(), h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    return authResp{
        User:    u,
        Role:    u.Role(),
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    }, nil
}

// Register: create a customer and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    phone, msg := checkCredentials(req.PhoneNumber, req.Password)
    if msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    gender, ok := normalizeGender(req.Gender)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "gender must be MALE or FEMALE"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.Create(ctx, repository.NewUser{
        PhoneNumber: phone,
        Password:    req.Password,
        FirstName:   strings.TrimSpace(req.FirstName),
        LastName:    strings.TrimSpace(req.LastName),
        Gender:      gender,
    }, h.Cfg.BcryptCost)
    if err != nil {
        return fail(c, err)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, resp)
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    phone := utils.NormalizePhone(req.PhoneNumber)
    if phone == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone_number/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByPhone(ctx, phone)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if err != nil {
        return fail(c, err)
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if !u.IsActive {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke the old token and issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    hash := utils.HashToken(strings.TrimSpace(req.RefreshToken))
    uid, err := h.Tokens.ValidateRefresh(ctx, hash)
    if errors.Is(err, repository.ErrRefreshInvalid) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }
    if err != nil {
        return fail(c, err)
    }
    u, err := h.Users.GetByID(ctx, uid)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }
    if err != nil {
        return fail(c, err)
    }
    if !u.IsActive {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
    }
    if err := h.Tokens.RevokeByHash(ctx, uid, hash); err != nil {
        return fail(c, err)
    }
    resp, err := h.issue(ctx, u)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, resp)
}

// Logout blacklists the presented access token.  The refresh token in the
// body is revoked when given; otherwise all of the user's refresh tokens are.
func (h *AuthHandler) Logout(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    raw, _ := c.Get(middleware.CtxToken).(string)
    exp, _ := c.Get(middleware.CtxTokenExp).(time.Time)

    var req refreshReq
    _ = c.Bind(&req)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Tokens.Blacklist(ctx, utils.HashToken(raw), exp); err != nil {
        return fail(c, err)
    }
    if rt := strings.TrimSpace(req.RefreshToken); rt != "" {
        err = h.Tokens.RevokeByHash(ctx, uid, utils.HashToken(rt))
    } else {
        err = h.Tokens.RevokeAllForUser(ctx, uid)
    }
    if err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    u, err := h.Users.GetByID(c.Request().Context(), uid)
    if err != nil {
        return fail(c, err)
    }
    exp, _ := c.Get(middleware.CtxTokenExp).(time.Time)
    return c.JSON(http.StatusOK, echo.Map{"user": u, "role": u.Role(), "token_expires": exp})
}

// Superuser bootstraps the administrator account whose credentials are
// configured through SUPERUSER_PHONE and SUPERUSER_PASSWORD.
func (h *AuthHandler) Superuser(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    phone := utils.NormalizePhone(req.PhoneNumber)
    if h.Cfg.SuperuserPhone == "" || phone != h.Cfg.SuperuserPhone || req.Password != h.Cfg.SuperuserPassword {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone number or password does not match the configured superuser"})
    }
    u, err := h.Users.Create(c.Request().Context(), repository.NewUser{
        PhoneNumber: phone,
        Password:    req.Password,
        IsStaff:     true,
        IsSuperuser: true,
    }, h.Cfg.BcryptCost)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, u)
}
