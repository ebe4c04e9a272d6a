package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/omkarjadhav/lokvarta/internal/model"
)

// NewsRepo persists staff-authored news items.
type NewsRepo struct{ DB *sql.DB }

func NewNewsRepo(db *sql.DB) *NewsRepo { return &NewsRepo{DB: db} }

const newsColumns = `id, title, body, image_url, district_id, taluka_id,
	author_id, is_active, created_at, updated_at`

func scanNews(sc interface{ Scan(...any) error }) (model.News, error) {
	var n model.News
	err := sc.Scan(&n.ID, &n.Title, &n.Body, &n.ImageURL, &n.DistrictID,
		&n.TalukaID, &n.AuthorID, &n.IsActive, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (r *NewsRepo) Create(ctx context.Context, n *model.News) error {
	n.Title = strings.TrimSpace(n.Title)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO news (title, body, image_url, district_id, taluka_id, author_id)
		 VALUES (?,?,?,?,?,?)`,
		n.Title, n.Body, n.ImageURL, n.DistrictID, n.TalukaID, n.AuthorID)
	if err != nil {
		return mapSQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

func (r *NewsRepo) GetByID(ctx context.Context, id uint64) (*model.News, error) {
	n, err := scanNews(r.DB.QueryRowContext(ctx,
		`SELECT `+newsColumns+` FROM news WHERE id=? AND is_active=1 LIMIT 1`, id))
	if err != nil {
		return nil, mapSQLError(err)
	}
	return &n, nil
}

// List returns a page of active news, newest first; districtID 0 lists all.
func (r *NewsRepo) List(ctx context.Context, districtID uint64, limit, offset int) ([]model.News, int, error) {
	where := ` WHERE is_active=1`
	args := []any{}
	if districtID != 0 {
		where += ` AND district_id=?`
		args = append(args, districtID)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM news`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapSQLError(err)
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+newsColumns+` FROM news`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, mapSQLError(err)
	}
	defer rows.Close()

	var out []model.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (r *NewsRepo) Update(ctx context.Context, n *model.News) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE news SET title=?, body=?, image_url=?, district_id=?, taluka_id=?
		 WHERE id=? AND is_active=1`,
		strings.TrimSpace(n.Title), n.Body, n.ImageURL, n.DistrictID, n.TalukaID, n.ID)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(res)
}

func (r *NewsRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE news SET is_active=0 WHERE id=? AND is_active=1`, id)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(res)
}
