package model

import "time"

// Role names carried in the JWT "role" claim.
const (
    RoleAdmin    = "ADMIN"
    RoleCustomer = "CUSTOMER"
)

// Gender values accepted by the users.gender column.
const (
    GenderMale   = "MALE"
    GenderFemale = "FEMALE"
)

// User represents an account as stored in the `users` table.  Accounts
// created through the chat bot carry the chat's ID so the bot can find
// them again; accounts created over HTTP leave ChatID nil until linked.
//
// Fields:
//  ID           – primary key identifier.
//  ChatID       – Telegram chat bound to the account (nullable).
//  PhoneNumber  – unique login, "998" followed by nine digits.
//  PasswordHash – bcrypt hashed password.
//  IsStaff      – staff may manage the catalogue and orders.
//  IsSuperuser  – bootstrap administrator.
type User struct {
    ID           uint64    `json:"id"`                   // users.id
    ChatID       *int64    `json:"chat_id,omitempty"`    // users.chat_id
    PhoneNumber  string    `json:"phone_number"`         // users.phone_number
    FirstName    string    `json:"first_name,omitempty"` // users.first_name
    LastName     string    `json:"last_name,omitempty"`  // users.last_name
    Gender       string    `json:"gender,omitempty"`     // users.gender
    PasswordHash string    `json:"-"`                    // users.password_hash
    IsActive     bool      `json:"is_active"`            // users.is_active
    IsStaff      bool      `json:"is_staff"`             // users.is_staff
    IsSuperuser  bool      `json:"is_superuser"`         // users.is_superuser
    CreatedAt    time.Time `json:"created_at"`           // users.created_at
    UpdatedAt    time.Time `json:"updated_at"`           // users.updated_at
}

// Role derives the JWT role for the account.
func (u User) Role() string {
    if u.IsStaff || u.IsSuperuser {
        return RoleAdmin
    }
    return RoleCustomer
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}

// BlacklistedToken is a revoked access token.  Rows can be purged once
// ExpiresAt has passed because the JWT itself is no longer valid then.
type BlacklistedToken struct {
    ID            uint64    // blacklisted_tokens.id
    TokenHash     string    // blacklisted_tokens.token_hash
    ExpiresAt     time.Time // blacklisted_tokens.expires_at
    BlacklistedOn time.Time // blacklisted_tokens.blacklisted_on
}
