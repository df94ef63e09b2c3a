package handler

import (
    "net/http"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/gusto-eats/internal/middleware"
    "github.com/iliyamo/gusto-eats/internal/utils"
)

func authEcho(users *fakeUsers, tokens *fakeTokens) *echo.Echo {
    h := NewAuthHandler(testConfig(), users, tokens)
    e := echo.New()
    e.POST("/register", h.Register)
    e.POST("/login", h.Login)
    e.POST("/refresh", h.Refresh)
    e.POST("/superuser", h.Superuser)
    e.POST("/logout", h.Logout, middleware.JWTAuth(testSecret, tokens))
    e.GET("/me", h.Me, middleware.JWTAuth(testSecret, tokens))
    return e
}

func TestRegisterValidation(t *testing.T) {
    e := authEcho(newFakeUsers(), newFakeTokens())

    cases := []map[string]string{
        {"phone_number": "12345", "password": "Secret1"},
        {"phone_number": "998901234567", "password": "weak"},
        {"phone_number": "998901234567", "password": "Secret1", "gender": "OTHER"},
    }
    for _, body := range cases {
        assert.Equal(t, http.StatusBadRequest, doJSON(e, http.MethodPost, "/register", "", body).Code, body)
    }
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
    users, tokens := newFakeUsers(), newFakeTokens()
    e := authEcho(users, tokens)

    rec := doJSON(e, http.MethodPost, "/register", "", map[string]string{
        "phone_number": "+998 90 123 45 67", "password": "Secret1", "first_name": "Ali", "gender": "male",
    })
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    var reg authResp
    decode(t, rec, &reg)
    assert.Equal(t, "998901234567", reg.User.PhoneNumber)
    assert.Equal(t, "MALE", reg.User.Gender)
    assert.Equal(t, "CUSTOMER", reg.Role)

    dup := doJSON(e, http.MethodPost, "/register", "", map[string]string{"phone_number": "998901234567", "password": "Secret1"})
    assert.Equal(t, http.StatusConflict, dup.Code)

    bad := doJSON(e, http.MethodPost, "/login", "", map[string]string{"phone_number": "998901234567", "password": "Wrong1"})
    assert.Equal(t, http.StatusUnauthorized, bad.Code)
    unknown := doJSON(e, http.MethodPost, "/login", "", map[string]string{"phone_number": "998909999999", "password": "Secret1"})
    assert.Equal(t, http.StatusUnauthorized, unknown.Code)

    rec = doJSON(e, http.MethodPost, "/login", "", map[string]string{"phone_number": "998901234567", "password": "Secret1"})
    require.Equal(t, http.StatusOK, rec.Code)
    var login authResp
    decode(t, rec, &login)

    rec = doJSON(e, http.MethodPost, "/refresh", "", map[string]string{"refresh_token": login.Refresh.Token})
    require.Equal(t, http.StatusOK, rec.Code)
    assert.True(t, tokens.revoked[utils.HashToken(login.Refresh.Token)])
    reused := doJSON(e, http.MethodPost, "/refresh", "", map[string]string{"refresh_token": login.Refresh.Token})
    assert.Equal(t, http.StatusUnauthorized, reused.Code)

    assert.Equal(t, http.StatusOK, doJSON(e, http.MethodGet, "/me", login.Access.Token, nil).Code)
    assert.Equal(t, http.StatusNoContent, doJSON(e, http.MethodPost, "/logout", login.Access.Token, nil).Code)
    assert.Equal(t, []uint64{reg.User.ID}, tokens.revokedAll)
    assert.Equal(t, http.StatusUnauthorized, doJSON(e, http.MethodGet, "/me", login.Access.Token, nil).Code)
}

func TestLoginInactive(t *testing.T) {
    users, tokens := newFakeUsers(), newFakeTokens()
    e := authEcho(users, tokens)
    require.Equal(t, http.StatusCreated, doJSON(e, http.MethodPost, "/register", "", map[string]string{"phone_number": "998901234567", "password": "Secret1"}).Code)
    u := users.users[1]
    u.IsActive = false
    users.users[1] = u

    rec := doJSON(e, http.MethodPost, "/login", "", map[string]string{"phone_number": "998901234567", "password": "Secret1"})
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSuperuser(t *testing.T) {
    e := authEcho(newFakeUsers(), newFakeTokens())

    wrong := doJSON(e, http.MethodPost, "/superuser", "", map[string]string{"phone_number": "998900000001", "password": "nope"})
    assert.Equal(t, http.StatusBadRequest, wrong.Code)

    rec := doJSON(e, http.MethodPost, "/superuser", "", map[string]string{"phone_number": "998900000001", "password": "Admin1"})
    require.Equal(t, http.StatusCreated, rec.Code)
    var body map[string]any
    decode(t, rec, &body)
    assert.Equal(t, true, body["is_superuser"])

    again := doJSON(e, http.MethodPost, "/superuser", "", map[string]string{"phone_number": "998900000001", "password": "Admin1"})
    assert.Equal(t, http.StatusConflict, again.Code)
}
