package auth // package auth implements the token lifecycle and authorization policy

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// Verification failures are split in two because callers surface
// different HTTP semantics: an expired token means the client should
// rotate, a structurally invalid one means it should be refused outright.
var (
    ErrTokenExpired = errors.New("token expired")
    ErrTokenInvalid = errors.New("token invalid")
)

// Identity is the decoded claim set of a verified token: who the caller
// is and what role they hold. It is what the authentication gate attaches
// to the request context.
type Identity struct {
    UserID   uint64
    Username string
    Role     string
}

// AccessToken is a signed, self-contained JWT plus its expiry. Access
// tokens are short-lived, never persisted and verified purely by
// signature and expiry, so they cannot be revoked before they expire.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken is a long-lived signed JWT used solely to obtain a new
// access/refresh pair. Unlike access tokens the raw string is also
// persisted (with a valid/invalid status) so rotation can be enforced.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The claims
// carry the subject (sub), username, role, expiration (exp) and issued
// at (iat).
func NewAccessToken(secret string, id Identity, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    signed, err := signClaims(secret, id, exp)
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs an HS256 JWT carrying the same claim
// set as an access token but with a day-granularity TTL and its own
// signing secret.
func NewRefreshToken(secret string, id Identity, ttlDays int) (RefreshToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
    signed, err := signClaims(secret, id, exp)
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{Raw: signed, Exp: exp}, nil
}

func signClaims(secret string, id Identity, exp time.Time) (string, error) {
    claims := jwt.MapClaims{
        "sub":      id.UserID,
        "username": id.Username,
        "role":     id.Role,
        "exp":      exp.Unix(),
        "iat":      time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return t.SignedString([]byte(secret))
}

// VerifyAccess checks the signature and expiry of an access token and
// returns the identity it carries. It never touches the store: pure
// computation, so worst-case auth latency is bounded. ErrTokenExpired is
// returned for a well-formed token past its exp claim; every other
// failure is ErrTokenInvalid.
func VerifyAccess(secret, raw string) (Identity, error) {
    return verify(secret, raw)
}

// VerifyRefresh checks a refresh token's signature against the refresh
// signing key. Rotation calls it after the store lookup has already
// established the token is current.
func VerifyRefresh(secret, raw string) (Identity, error) {
    return verify(secret, raw)
}

func verify(secret, raw string) (Identity, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything other than HMAC.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrTokenInvalid
        }
        return []byte(secret), nil
    })
    if err != nil {
        if errors.Is(err, jwt.ErrTokenExpired) {
            return Identity{}, ErrTokenExpired
        }
        return Identity{}, ErrTokenInvalid
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return Identity{}, ErrTokenInvalid
    }
    id := Identity{}
    // JWT numbers decode as float64.
    sub, ok := claims["sub"].(float64)
    if !ok {
        return Identity{}, ErrTokenInvalid
    }
    id.UserID = uint64(sub)
    if v, ok := claims["username"].(string); ok {
        id.Username = v
    }
    if v, ok := claims["role"].(string); ok {
        id.Role = v
    }
    return id, nil
}
