package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/omkarjadhav/lokvarta/internal/model"
)

// UserRepo persists user principals. Every lookup excludes soft-deleted
// rows so a deleted user can never authenticate or be found by the auth
// flows.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, phone, email, first_name, last_name, password_hash,
	is_active, is_verified, last_login,
	refresh_token_hash, refresh_token_expires_at, refresh_token_revoked_at,
	current_otp, otp_expires_at, otp_attempts, otp_is_used,
	created_at, updated_at, deleted_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Phone, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.IsActive, &u.IsVerified, &u.LastLogin,
		&u.RefreshTokenHash, &u.RefreshTokenExpiresAt, &u.RefreshTokenRevokedAt,
		&u.CurrentOtp, &u.OtpExpiresAt, &u.OtpAttempts, &u.OtpIsUsed,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err != nil {
		return nil, mapSQLError(err)
	}
	return &u, nil
}

// Create inserts a user and fills in its ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	if u.Email != nil {
		norm := strings.ToLower(strings.TrimSpace(*u.Email))
		u.Email = &norm
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (phone, email, first_name, last_name, password_hash, is_verified)
		 VALUES (?,?,?,?,?,?)`,
		u.Phone, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsVerified)
	if err != nil {
		return mapSQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// GetByID fetches a non-deleted user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1`, id))
}

// GetByEmail fetches a non-deleted user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email=? AND deleted_at IS NULL LIMIT 1`, email))
}

// GetByPhone fetches a non-deleted user by phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone=? AND deleted_at IS NULL LIMIT 1`, phone))
}

// UpdateNames overwrites the display names of a pending registration.
func (r *UserRepo) UpdateNames(ctx context.Context, id uint64, first, last string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET first_name=?, last_name=? WHERE id=? AND deleted_at IS NULL`,
		first, last, id)
	return mapSQLError(err)
}

// UpdateProfile updates names and optionally the email.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, first, last string, email *string) error {
	if email != nil {
		norm := strings.ToLower(strings.TrimSpace(*email))
		email = &norm
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET first_name=?, last_name=?, email=COALESCE(?, email)
		 WHERE id=? AND deleted_at IS NULL`,
		first, last, email, id)
	return mapSQLError(err)
}

// MarkVerified flips is_verified after a successful registration OTP.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET is_verified=1 WHERE id=? AND deleted_at IS NULL`, id)
	return mapSQLError(err)
}

// UpdateLastLogin stamps a successful login.
func (r *UserRepo) UpdateLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET last_login=UTC_TIMESTAMP() WHERE id=? AND deleted_at IS NULL`, id)
	return mapSQLError(err)
}

// SetActive toggles account activation.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET is_active=? WHERE id=? AND deleted_at IS NULL`, active, id)
	return mapSQLError(err)
}

// SoftDelete marks the row dead. The unique phone/email stay occupied,
// preserving referential history.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET deleted_at=UTC_TIMESTAMP() WHERE id=? AND deleted_at IS NULL`, id)
	return mapSQLError(err)
}

// List returns a page of non-deleted users plus the total count.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, mapSQLError(err)
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, phone, email, first_name, last_name, is_active, is_verified, last_login, created_at, updated_at
		 FROM users WHERE deleted_at IS NULL ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, mapSQLError(err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Phone, &u.Email, &u.FirstName, &u.LastName,
			&u.IsActive, &u.IsVerified, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// ----- OTP state -----

// SaveOtp writes the full OTP quintuple in one statement so a failure can
// never leave current_otp set without its expiry.
func (r *UserRepo) SaveOtp(ctx context.Context, id uint64, code string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET current_otp=?, otp_expires_at=?, otp_attempts=0, otp_is_used=0
		 WHERE id=? AND deleted_at IS NULL`,
		code, expiresAt, id)
	return mapSQLError(err)
}

// IncrementOtpAttempts bumps the attempt counter and returns the new value.
func (r *UserRepo) IncrementOtpAttempts(ctx context.Context, id uint64) (int, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET otp_attempts=otp_attempts+1 WHERE id=? AND deleted_at IS NULL`, id); err != nil {
		return 0, mapSQLError(err)
	}
	var attempts int
	if err := tx.QueryRowContext(ctx,
		`SELECT otp_attempts FROM users WHERE id=?`, id).Scan(&attempts); err != nil {
		return 0, mapSQLError(err)
	}
	return attempts, tx.Commit()
}

// MarkOtpUsed consumes the current OTP.
func (r *UserRepo) MarkOtpUsed(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET otp_is_used=1 WHERE id=? AND deleted_at IS NULL`, id)
	return mapSQLError(err)
}

// ----- embedded refresh-token store -----

// UserTokenStore adapts the embedded single-token columns on the users
// table to the token-store contract. Saving or rotating implicitly logs
// out any other device: a deliberate single-session policy.
type UserTokenStore struct{ Users *UserRepo }

func NewUserTokenStore(users *UserRepo) *UserTokenStore { return &UserTokenStore{Users: users} }

// Save overwrites the stored token, clearing any prior revocation.
func (s *UserTokenStore) Save(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := s.Users.DB.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=?, refresh_token_revoked_at=NULL
		 WHERE id=? AND deleted_at IS NULL`,
		tokenHash, expiresAt, userID)
	return mapSQLError(err)
}

// Rotate is a compare-and-swap on the stored token. The WHERE clause
// carries the full liveness check, so of two concurrent refreshes holding
// the same old token exactly one can win; the loser sees ErrTokenMismatch.
func (s *UserTokenStore) Rotate(ctx context.Context, userID uint64, oldHash, newHash string, expiresAt time.Time) error {
	res, err := s.Users.DB.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash=?, refresh_token_expires_at=?, refresh_token_revoked_at=NULL
		 WHERE id=? AND refresh_token_hash=? AND refresh_token_revoked_at IS NULL
		   AND (refresh_token_expires_at IS NULL OR refresh_token_expires_at > UTC_TIMESTAMP())
		   AND deleted_at IS NULL`,
		newHash, expiresAt, userID, oldHash)
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

// Revoke stamps revocation only when the presented token is the stored one.
func (s *UserTokenStore) Revoke(ctx context.Context, userID uint64, tokenHash string) error {
	res, err := s.Users.DB.ExecContext(ctx,
		`UPDATE users SET refresh_token_revoked_at=UTC_TIMESTAMP()
		 WHERE id=? AND refresh_token_hash=? AND refresh_token_revoked_at IS NULL AND deleted_at IS NULL`,
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

// RevokeAll unconditionally clears the stored token and stamps revocation.
func (s *UserTokenStore) RevokeAll(ctx context.Context, userID uint64) error {
	_, err := s.Users.DB.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash=NULL, refresh_token_expires_at=NULL,
		 refresh_token_revoked_at=UTC_TIMESTAMP() WHERE id=? AND deleted_at IS NULL`,
		userID)
	return mapSQLError(err)
}
