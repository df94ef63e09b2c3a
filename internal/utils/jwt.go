package utils // package utils provides helpers for tokens, passwords and uploads

import (
    "crypto/rand"   // secure random bytes for refresh tokens
    "crypto/sha256" // token digests stored instead of raw tokens
    "encoding/hex"
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by ParseAccessToken for any token that fails
// signature, algorithm or claim validation.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed JWT and the moment it stops being valid.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// RefreshToken is the raw refresh string handed to clients.  Only its
// SHA‑256 digest reaches the database.
type RefreshToken struct {
    Raw string
    Exp time.Time
}

// AccessClaims are the claims the API reads back out of an access token.
type AccessClaims struct {
    UserID uint64
    Role   string
    Exp    time.Time
}

// NewAccessToken signs an HS256 JWT carrying sub, role, exp and iat.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and extracts its claims.  Only
// HMAC signatures are accepted.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
        }
        return []byte(secret), nil
    }, jwt.WithExpirationRequired())
    if err != nil || !tok.Valid {
        return AccessClaims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return AccessClaims{}, ErrInvalidToken
    }
    // Numeric claims decode as float64.
    sub, ok := mc["sub"].(float64)
    if !ok || sub <= 0 {
        return AccessClaims{}, ErrInvalidToken
    }
    role, _ := mc["role"].(string)
    exp, err := mc.GetExpirationTime()
    if err != nil || exp == nil {
        return AccessClaims{}, ErrInvalidToken
    }
    return AccessClaims{UserID: uint64(sub), Role: role, Exp: exp.Time.UTC()}, nil
}

// NewRefreshToken returns 96 hex characters of random data valid for ttlDays.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48)
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashToken returns the hex SHA‑256 digest of a refresh or access token.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
