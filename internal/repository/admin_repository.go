package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/omkarjadhav/lokvarta/internal/model"
)

// AdminRepo persists admin principals. Admins carry the same embedded
// refresh-token triplet as users.
type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

const adminColumns = `id, name, email, password_hash, role, is_active, last_login,
	refresh_token_hash, refresh_token_expires_at, refresh_token_revoked_at,
	created_at, updated_at, deleted_at`

func scanAdmin(row *sql.Row) (*model.Admin, error) {
	var a model.Admin
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.IsActive, &a.LastLogin,
		&a.RefreshTokenHash, &a.RefreshTokenExpiresAt, &a.RefreshTokenRevokedAt,
		&a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)
	if err != nil {
		return nil, mapSQLError(err)
	}
	return &a, nil
}

// Create inserts an admin and fills in its ID.
func (r *AdminRepo) Create(ctx context.Context, a *model.Admin) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO admins (name, email, password_hash, role) VALUES (?,?,?,?)`,
		a.Name, a.Email, a.PasswordHash, a.Role)
	if err != nil {
		return mapSQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByID fetches a non-deleted admin by id.
func (r *AdminRepo) GetByID(ctx context.Context, id uint64) (*model.Admin, error) {
	return scanAdmin(r.DB.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id=? AND deleted_at IS NULL LIMIT 1`, id))
}

// GetByEmail fetches a non-deleted admin by normalized email.
func (r *AdminRepo) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanAdmin(r.DB.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE email=? AND deleted_at IS NULL LIMIT 1`, email))
}

// UpdateLastLogin stamps a successful login.
func (r *AdminRepo) UpdateLastLogin(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE admins SET last_login=UTC_TIMESTAMP() WHERE id=? AND deleted_at IS NULL`, id)
	return mapSQLError(err)
}

// List returns a page of non-deleted admins plus the total count.
func (r *AdminRepo) List(ctx context.Context, limit, offset int) ([]model.Admin, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM admins WHERE deleted_at IS NULL`).Scan(&total); err != nil {
		return nil, 0, mapSQLError(err)
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, email, role, is_active, last_login, created_at, updated_at
		 FROM admins WHERE deleted_at IS NULL ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, mapSQLError(err)
	}
	defer rows.Close()

	var out []model.Admin
	for rows.Next() {
		var a model.Admin
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.IsActive,
			&a.LastLogin, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// AdminTokenStore adapts the embedded refresh-token columns on the admins
// table to the token-store contract. Same single-session semantics as the
// user store.
type AdminTokenStore struct{ Admins *AdminRepo }

func NewAdminTokenStore(admins *AdminRepo) *AdminTokenStore { return &AdminTokenStore{Admins: admins} }

func (s *AdminTokenStore) Save(ctx context.Context, adminID uint64, tokenHash string, expiresAt time.Time) error {
	_, err := s.Admins.DB.ExecContext(ctx,
		`UPDATE admins SET refresh_token_hash=?, refresh_token_expires_at=?, refresh_token_revoked_at=NULL
		 WHERE id=? AND deleted_at IS NULL`,
		tokenHash, expiresAt, adminID)
	return mapSQLError(err)
}

// Rotate performs the compare-and-swap described on UserTokenStore.Rotate.
func (s *AdminTokenStore) Rotate(ctx context.Context, adminID uint64, oldHash, newHash string, expiresAt time.Time) error {
	res, err := s.Admins.DB.ExecContext(ctx,
		`UPDATE admins SET refresh_token_hash=?, refresh_token_expires_at=?, refresh_token_revoked_at=NULL
		 WHERE id=? AND refresh_token_hash=? AND refresh_token_revoked_at IS NULL
		   AND (refresh_token_expires_at IS NULL OR refresh_token_expires_at > UTC_TIMESTAMP())
		   AND deleted_at IS NULL`,
		newHash, expiresAt, adminID, oldHash)
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

func (s *AdminTokenStore) Revoke(ctx context.Context, adminID uint64, tokenHash string) error {
	res, err := s.Admins.DB.ExecContext(ctx,
		`UPDATE admins SET refresh_token_revoked_at=UTC_TIMESTAMP()
		 WHERE id=? AND refresh_token_hash=? AND refresh_token_revoked_at IS NULL AND deleted_at IS NULL`,
		adminID, tokenHash)
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

func (s *AdminTokenStore) RevokeAll(ctx context.Context, adminID uint64) error {
	_, err := s.Admins.DB.ExecContext(ctx,
		`UPDATE admins SET refresh_token_hash=NULL, refresh_token_expires_at=NULL,
		 refresh_token_revoked_at=UTC_TIMESTAMP() WHERE id=? AND deleted_at IS NULL`,
		adminID)
	return mapSQLError(err)
}
