package auth

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/casecraft/internal/model"
)

// Rotation rejections. ErrRefreshNotFound deliberately covers both
// "never existed" and "already rotated": a replayed token must be
// indistinguishable from a forged one to the caller.
var (
    ErrRefreshNotFound  = errors.New("refresh token not found")
    ErrRefreshExpired   = errors.New("refresh token expired")
    ErrRefreshSignature = errors.New("refresh token signature invalid")
)

// UserStore is the credential store as seen by the token service.
type UserStore interface {
    GetByUsername(ctx context.Context, username string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
    Create(ctx context.Context, username, password, role string, cost int) (uint64, error)
}

// ErrNoActiveToken is what RefreshTokenStore implementations return
// from ConsumeActive when no valid row matches the presented token. It
// keeps "token not found" distinguishable from a store failure: only
// the former maps to ErrRefreshNotFound, everything else propagates so
// a database outage surfaces as a server error instead of a 403.
var ErrNoActiveToken = errors.New("no active refresh token")

// RefreshTokenStore persists refresh tokens. Both mutating operations
// are atomic units: ReplaceActive runs invalidate-old/insert-new as one
// transaction, and ConsumeActive flips exactly one valid row to invalid
// so concurrent rotations of the same token have a single winner.
type RefreshTokenStore interface {
    ReplaceActive(ctx context.Context, userID uint64, token string, exp time.Time) error
    ConsumeActive(ctx context.Context, token string) (model.RefreshToken, error)
    RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Session is a freshly issued access/refresh pair along with the
// identity it was issued to.
type Session struct {
    Identity Identity
    Access   AccessToken
    Refresh  RefreshToken
}

// Service owns the session lifecycle: issuing pairs on login, rotating
// refresh tokens and revoking them. It reaches the store only through
// the interfaces above.
type Service struct {
    accessKey      string
    refreshKey     string
    accessTTLMin   int
    refreshTTLDays int
    users          UserStore
    tokens         RefreshTokenStore
}

func NewService(accessKey, refreshKey string, accessTTLMin, refreshTTLDays int, users UserStore, tokens RefreshTokenStore) *Service {
    return &Service{
        accessKey:      accessKey,
        refreshKey:     refreshKey,
        accessTTLMin:   accessTTLMin,
        refreshTTLDays: refreshTTLDays,
        users:          users,
        tokens:         tokens,
    }
}

// IssueSession generates a new access/refresh pair for the user and
// persists the refresh token. ReplaceActive invalidates any previously
// valid token for the user in the same transaction as the insert, so
// the single-valid-token-per-user invariant holds even under concurrent
// logins.
func (s *Service) IssueSession(ctx context.Context, u model.User) (Session, error) {
    id := Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
    access, err := NewAccessToken(s.accessKey, id, s.accessTTLMin)
    if err != nil {
        return Session{}, err
    }
    refresh, err := NewRefreshToken(s.refreshKey, id, s.refreshTTLDays)
    if err != nil {
        return Session{}, err
    }
    if err := s.tokens.ReplaceActive(ctx, u.ID, refresh.Raw, refresh.Exp); err != nil {
        return Session{}, err
    }
    return Session{Identity: id, Access: access, Refresh: refresh}, nil
}

// Rotate exchanges a valid refresh token for a new pair, invalidating
// the presented one. ConsumeActive claims the token first: if two calls
// race on the same token, exactly one claim succeeds and the loser sees
// ErrRefreshNotFound. The token stays consumed even when a later step
// fails; a token that reached the store but cannot pass signature
// verification is not worth restoring.
func (s *Service) Rotate(ctx context.Context, raw string) (Session, error) {
    rec, err := s.tokens.ConsumeActive(ctx, raw)
    if errors.Is(err, ErrNoActiveToken) {
        return Session{}, ErrRefreshNotFound
    }
    if err != nil {
        return Session{}, err
    }
    if time.Now().UTC().After(rec.ExpiresAt) {
        return Session{}, ErrRefreshExpired
    }
    if _, err := VerifyRefresh(s.refreshKey, raw); err != nil {
        return Session{}, ErrRefreshSignature
    }
    u, err := s.users.GetByID(ctx, rec.UserID)
    if err != nil {
        return Session{}, err
    }
    return s.IssueSession(ctx, u)
}

// Revoke invalidates one refresh token (logout of a single session).
// The same ConsumeActive claim is used, so an unknown or already
// invalidated token reports ErrRefreshNotFound.
func (s *Service) Revoke(ctx context.Context, raw string) error {
    _, err := s.tokens.ConsumeActive(ctx, raw)
    if errors.Is(err, ErrNoActiveToken) {
        return ErrRefreshNotFound
    }
    return err
}

// RevokeAll marks every valid refresh token owned by the user as
// invalid. Used on suspected compromise and on logout.
func (s *Service) RevokeAll(ctx context.Context, userID uint64) error {
    return s.tokens.RevokeAllForUser(ctx, userID)
}
