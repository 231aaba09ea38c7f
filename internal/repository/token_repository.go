package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/casecraft/internal/auth"
	"github.com/iliyamo/casecraft/internal/model"
)

// RefreshTokenRepo persists refresh tokens in the 'refresh_tokens'
// table. Rows are never deleted; status flips from 'valid' to 'invalid'
// on rotation, expiry or revocation so the table doubles as an audit
// trail of every token ever issued.
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// ReplaceActive invalidates any currently valid token owned by the user
// and inserts the new one as valid, in a single transaction. Two
// concurrent calls for the same user cannot both leave an extra valid
// row: the UPDATE serializes on the user's rows, so the invariant of at
// most one valid token per user holds.
func (r *RefreshTokenRepo) ReplaceActive(ctx context.Context, userID uint64, token string, exp time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET status=? WHERE user_id=? AND status=?",
		model.TokenInvalid, userID, model.TokenValid); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token, status, expires_at) VALUES (?,?,?,?)",
		userID, token, model.TokenValid, exp); err != nil {
		return err
	}
	return tx.Commit()
}

// ConsumeActive atomically claims a valid token by flipping it to
// invalid, then returns the claimed row. The conditional UPDATE is the
// race guard: of two concurrent rotations presenting the same token,
// only one UPDATE reports an affected row; the other gets
// auth.ErrNoActiveToken, which also covers tokens that never existed.
// Store failures are returned as-is so callers can tell them apart.
func (r *RefreshTokenRepo) ConsumeActive(ctx context.Context, token string) (model.RefreshToken, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET status=? WHERE token=? AND status=?",
		model.TokenInvalid, token, model.TokenValid)
	if err != nil {
		return model.RefreshToken{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.RefreshToken{}, err
	}
	if n == 0 {
		return model.RefreshToken{}, auth.ErrNoActiveToken
	}

	var t model.RefreshToken
	err = r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,token,status,expires_at,created_at FROM refresh_tokens WHERE token=? LIMIT 1",
		token).Scan(&t.ID, &t.UserID, &t.Token, &t.Status, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return model.RefreshToken{}, err
	}
	return t, nil
}

// RevokeAllForUser invalidates all of the user's valid tokens.
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET status=? WHERE user_id=? AND status=?",
		model.TokenInvalid, userID, model.TokenValid)
	return err
}
