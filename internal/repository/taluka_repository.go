package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/omkarjadhav/lokvarta/internal/model"
)

// TalukaRepo persists talukas. Names are unique within a district.
type TalukaRepo struct{ DB *sql.DB }

func NewTalukaRepo(db *sql.DB) *TalukaRepo { return &TalukaRepo{DB: db} }

func (r *TalukaRepo) Create(ctx context.Context, t *model.Taluka) error {
	t.Name = strings.TrimSpace(t.Name)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO talukas (district_id, name) VALUES (?,?)`, t.DistrictID, t.Name)
	if err != nil {
		return mapSQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *TalukaRepo) GetByID(ctx context.Context, id uint64) (*model.Taluka, error) {
	var t model.Taluka
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, district_id, name, is_active, created_at, updated_at
		 FROM talukas WHERE id=? AND is_active=1 LIMIT 1`, id).
		Scan(&t.ID, &t.DistrictID, &t.Name, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapSQLError(err)
	}
	return &t, nil
}

// ListByDistrict returns the active talukas of a district; districtID 0
// lists all.
func (r *TalukaRepo) ListByDistrict(ctx context.Context, districtID uint64) ([]model.Taluka, error) {
	q := `SELECT id, district_id, name, is_active, created_at, updated_at
	      FROM talukas WHERE is_active=1`
	args := []any{}
	if districtID != 0 {
		q += ` AND district_id=?`
		args = append(args, districtID)
	}
	q += ` ORDER BY name`

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	var out []model.Taluka
	for rows.Next() {
		var t model.Taluka
		if err := rows.Scan(&t.ID, &t.DistrictID, &t.Name, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TalukaRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE talukas SET name=? WHERE id=? AND is_active=1`, strings.TrimSpace(name), id)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(res)
}

func (r *TalukaRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE talukas SET is_active=0 WHERE id=? AND is_active=1`, id)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(res)
}
