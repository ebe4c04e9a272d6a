package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/omkarjadhav/lokvarta/internal/model"
)

// DistrictRepo persists districts. Delete is a soft delete via is_active.
type DistrictRepo struct{ DB *sql.DB }

func NewDistrictRepo(db *sql.DB) *DistrictRepo { return &DistrictRepo{DB: db} }

// Create inserts a district; duplicate names surface as ErrDuplicate.
func (r *DistrictRepo) Create(ctx context.Context, d *model.District) error {
	d.Name = strings.TrimSpace(d.Name)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO districts (name) VALUES (?)`, d.Name)
	if err != nil {
		return mapSQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// GetByID returns an active district.
func (r *DistrictRepo) GetByID(ctx context.Context, id uint64) (*model.District, error) {
	var d model.District
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, is_active, created_at, updated_at
		 FROM districts WHERE id=? AND is_active=1 LIMIT 1`, id).
		Scan(&d.ID, &d.Name, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, mapSQLError(err)
	}
	return &d, nil
}

// List returns all active districts.
func (r *DistrictRepo) List(ctx context.Context) ([]model.District, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, is_active, created_at, updated_at
		 FROM districts WHERE is_active=1 ORDER BY name`)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	var out []model.District
	for rows.Next() {
		var d model.District
		if err := rows.Scan(&d.ID, &d.Name, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateName renames a district.
func (r *DistrictRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE districts SET name=? WHERE id=? AND is_active=1`, strings.TrimSpace(name), id)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(res)
}

// Deactivate soft-deletes a district.
func (r *DistrictRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE districts SET is_active=0 WHERE id=? AND is_active=1`, id)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(res)
}

// requireAffected converts a zero-row UPDATE into ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
