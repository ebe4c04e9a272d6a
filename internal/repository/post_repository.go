package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/omkarjadhav/lokvarta/internal/model"
)

// PostFilter narrows post listings. Zero values mean "no filter".
type PostFilter struct {
	DistrictID uint64
	TalukaID   uint64
	CategoryID uint64
	AuthorID   uint64
}

// PostRepo persists user-authored posts.
type PostRepo struct{ DB *sql.DB }

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{DB: db} }

const postColumns = `id, title, body, image_url, category_id, district_id, taluka_id,
	author_id, is_active, created_at, updated_at`

func scanPost(sc interface{ Scan(...any) error }) (model.Post, error) {
	var p model.Post
	err := sc.Scan(&p.ID, &p.Title, &p.Body, &p.ImageURL, &p.CategoryID, &p.DistrictID,
		&p.TalukaID, &p.AuthorID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostRepo) Create(ctx context.Context, p *model.Post) error {
	p.Title = strings.TrimSpace(p.Title)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO posts (title, body, image_url, category_id, district_id, taluka_id, author_id)
		 VALUES (?,?,?,?,?,?,?)`,
		p.Title, p.Body, p.ImageURL, p.CategoryID, p.DistrictID, p.TalukaID, p.AuthorID)
	if err != nil {
		return mapSQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id uint64) (*model.Post, error) {
	p, err := scanPost(r.DB.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id=? AND is_active=1 LIMIT 1`, id))
	if err != nil {
		return nil, mapSQLError(err)
	}
	return &p, nil
}

// List returns a page of active posts matching the filter, newest first,
// plus the total match count for pagination.
func (r *PostRepo) List(ctx context.Context, f PostFilter, limit, offset int) ([]model.Post, int, error) {
	where := ` WHERE is_active=1`
	args := []any{}
	if f.DistrictID != 0 {
		where += ` AND district_id=?`
		args = append(args, f.DistrictID)
	}
	if f.TalukaID != 0 {
		where += ` AND taluka_id=?`
		args = append(args, f.TalukaID)
	}
	if f.CategoryID != 0 {
		where += ` AND category_id=?`
		args = append(args, f.CategoryID)
	}
	if f.AuthorID != 0 {
		where += ` AND author_id=?`
		args = append(args, f.AuthorID)
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapSQLError(err)
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts`+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, mapSQLError(err)
	}
	defer rows.Close()

	var out []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *PostRepo) Update(ctx context.Context, p *model.Post) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE posts SET title=?, body=?, image_url=?, category_id=?, district_id=?, taluka_id=?
		 WHERE id=? AND is_active=1`,
		strings.TrimSpace(p.Title), p.Body, p.ImageURL, p.CategoryID, p.DistrictID, p.TalukaID, p.ID)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(res)
}

func (r *PostRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE posts SET is_active=0 WHERE id=? AND is_active=1`, id)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(res)
}
