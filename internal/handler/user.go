package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/gusto-eats/internal/config"
    "github.com/iliyamo/gusto-eats/internal/repository"
    "github.com/iliyamo/gusto-eats/internal/utils"
)

// RefreshRevoker drops every refresh token of a user.
type RefreshRevoker interface {
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// UserHandler serves account management.  Admins may act on any account;
// customers only on their own.  Disabling an account revokes its refresh
// tokens when Tokens is set.
type UserHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens RefreshRevoker
}

func NewUserHandler(cfg config.Config, u UserStore, tokens RefreshRevoker) *UserHandler {
    return &UserHandler{Cfg: cfg, Users: u, Tokens: tokens}
}

type createUserReq struct {
    registerReq
    IsStaff bool `json:"is_staff"`
}

type updateUserReq struct {
    PhoneNumber *string `json:"phone_number"`
    Password    *string `json:"password"`
    FirstName   *string `json:"first_name"`
    LastName    *string `json:"last_name"`
    Gender      *string `json:"gender"`
    IsActive    *bool   `json:"is_active"`
    IsStaff     *bool   `json:"is_staff"`
}

// selfOrAdmin resolves :id and checks that the caller may act on it.
func selfOrAdmin(c echo.Context) (uint64, error) {
    id, ok := parseID(c, "id")
    if !ok {
        return 0, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    uid, err := getUserID(c)
    if err != nil {
        return 0, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if uid != id && !isAdmin(c) {
        return 0, c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return id, nil
}

// Create handles POST /v1/users (admin).
func (h *UserHandler) Create(c echo.Context) error {
    var req createUserReq
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
    u, err := h.Users.Create(c.Request().Context(), repository.NewUser{
        PhoneNumber: phone,
        Password:    req.Password,
        FirstName:   strings.TrimSpace(req.FirstName),
        LastName:    strings.TrimSpace(req.LastName),
        Gender:      gender,
        IsStaff:     req.IsStaff,
    }, h.Cfg.BcryptCost)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, u)
}

// List handles GET /v1/users (admin).
func (h *UserHandler) List(c echo.Context) error {
    skip, limit := page(c)
    users, err := h.Users.List(c.Request().Context(), skip, limit)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, users)
}

// Get handles GET /v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
    id, err := selfOrAdmin(c)
    if id == 0 {
        return err
    }
    u, err := h.Users.GetByID(c.Request().Context(), id)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, u)
}

// Update handles PATCH /v1/users/:id.  Only admins may change the
// is_active and is_staff flags.
func (h *UserHandler) Update(c echo.Context) error {
    id, err := selfOrAdmin(c)
    if id == 0 {
        return err
    }
    var req updateUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if (req.IsActive != nil || req.IsStaff != nil) && !isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only admins may change account flags"})
    }
    patch := repository.UserPatch{
        Password:  req.Password,
        FirstName: req.FirstName,
        LastName:  req.LastName,
        IsActive:  req.IsActive,
        IsStaff:   req.IsStaff,
    }
    if req.PhoneNumber != nil {
        p := utils.NormalizePhone(*req.PhoneNumber)
        if !utils.ValidPhone(p) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone_number must be 998 followed by 9 digits"})
        }
        patch.PhoneNumber = &p
    }
    if req.Password != nil && !utils.StrongPassword(*req.Password) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters with upper, lower case letters and a digit"})
    }
    if req.Gender != nil {
        g, ok := normalizeGender(*req.Gender)
        if !ok {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "gender must be MALE or FEMALE"})
        }
        patch.Gender = &g
    }
    ctx := c.Request().Context()
    u, err := h.Users.Update(ctx, id, patch, h.Cfg.BcryptCost)
    if err != nil {
        return fail(c, err)
    }
    if !u.IsActive && h.Tokens != nil {
        if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
            return fail(c, err)
        }
    }
    return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /v1/users/:id.  The user's reviews and orders go
// with the account.
func (h *UserHandler) Delete(c echo.Context) error {
    id, err := selfOrAdmin(c)
    if id == 0 {
        return err
    }
    if err := h.Users.Delete(c.Request().Context(), id); err != nil {
        return fail(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
