package repository

import (
	"context"
	"database/sql"
	"time"
)

// RefreshTokenRepo is the row-per-token store (AUTH_TOKEN_STORE=table).
// Each device holds its own row, independently revocable, so concurrent
// sessions survive each other's refreshes.
type RefreshTokenRepo struct{ DB *sql.DB }

func NewRefreshTokenRepo(db *sql.DB) *RefreshTokenRepo { return &RefreshTokenRepo{DB: db} }

// Save inserts a new live token row for the user.
func (r *RefreshTokenRepo) Save(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)`,
		userID, tokenHash, expiresAt)
	return mapSQLError(err)
}

// Rotate revokes the presented token and inserts its replacement inside
// one transaction. The revoke UPDATE is the compare-and-swap: it matches
// only a live row, so of two concurrent refreshes presenting the same
// token exactly one commits; the other gets ErrTokenMismatch.
func (r *RefreshTokenRepo) Rotate(ctx context.Context, userID uint64, oldHash, newHash string, expiresAt time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP()
		 WHERE user_id=? AND token_hash=? AND revoked_at IS NULL AND expires_at > UTC_TIMESTAMP()`,
		userID, oldHash)
	if err != nil {
		return mapSQLError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrTokenMismatch
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)`,
		userID, newHash, expiresAt); err != nil {
		return mapSQLError(err)
	}
	return tx.Commit()
}

// Revoke marks one token row dead when it matches a live row.
func (r *RefreshTokenRepo) Revoke(ctx context.Context, userID uint64, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP()
		 WHERE user_id=? AND token_hash=? AND revoked_at IS NULL`,
		userID, tokenHash)
	if err != nil {
		return mapSQLError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrTokenMismatch
	}
	return nil
}

// RevokeAll revokes every live token for the user across all devices.
func (r *RefreshTokenRepo) RevokeAll(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP()
		 WHERE user_id=? AND revoked_at IS NULL`,
		userID)
	return mapSQLError(err)
}
