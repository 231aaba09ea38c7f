package model

import "time"

// Role values stored in the users.role column. New accounts default to
// RoleUser; RoleAdmin unlocks the administrative endpoints (user listing,
// order listing, shipping updates).
const (
    RoleAdmin = "admin"
    RoleUser  = "user"
)

// User represents an application user record as stored in the `users`
// table. The password is only ever persisted as a bcrypt hash; it is
// computed when the account is created and recomputed only when the
// password itself changes.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  PasswordHash – bcrypt hashed password.
//  Role         – "admin" or "user".
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Refresh token status values. Rows are never deleted; rotation and
// revocation only ever flip status from valid to invalid, leaving an
// audit trail of every token that was issued.
const (
    TokenValid   = "valid"
    TokenInvalid = "invalid"
)

// RefreshToken models an entry in the `refresh_tokens` table. The token
// column holds the signed JWT string handed to the client; lookups during
// rotation match on that literal string. At most one row per user may be
// in status "valid" at any instant.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  Token     – signed refresh JWT (unique).
//  Status    – "valid" or "invalid".
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64    // refresh_tokens.id
    UserID    uint64    // refresh_tokens.user_id
    Token     string    // refresh_tokens.token
    Status    string    // refresh_tokens.status
    ExpiresAt time.Time // refresh_tokens.expires_at
    CreatedAt time.Time // refresh_tokens.created_at
}
