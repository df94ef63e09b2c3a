package handler

import (
    "bytes"
    "encoding/json"
    "io"
    "mime/multipart"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/gusto-eats/internal/config"
    "github.com/iliyamo/gusto-eats/internal/utils"
)

const testSecret = "test-secret"

func testConfig() config.Config {
    return config.Config{
        JWTSecret:         testSecret,
        AccessTTLMin:      15,
        RefreshTTLDays:    7,
        BcryptCost:        4,
        SuperuserPhone:    "998900000001",
        SuperuserPassword: "Admin1",
    }
}

func bearer(t *testing.T, uid uint64, role string) string {
    t.Helper()
    tok, err := utils.NewAccessToken(testSecret, uid, role, 15)
    require.NoError(t, err)
    return tok.Token
}

func doJSON(e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
    var r io.Reader
    if body != nil {
        bs, _ := json.Marshal(body)
        r = bytes.NewReader(bs)
    }
    req := httptest.NewRequest(method, path, r)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func doMultipart(t *testing.T, e *echo.Echo, method, path, token string, fields map[string]string, image []byte) *httptest.ResponseRecorder {
    t.Helper()
    var buf bytes.Buffer
    w := multipart.NewWriter(&buf)
    for k, v := range fields {
        require.NoError(t, w.WriteField(k, v))
    }
    if image != nil {
        fw, err := w.CreateFormFile("image", "pic.png")
        require.NoError(t, err)
        _, err = fw.Write(image)
        require.NoError(t, err)
    }
    require.NoError(t, w.Close())
    req := httptest.NewRequest(method, path, &buf)
    req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
    t.Helper()
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")
