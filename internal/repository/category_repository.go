package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/omkarjadhav/lokvarta/internal/model"
)

// CategoryRepo persists post categories.
type CategoryRepo struct{ DB *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{DB: db} }

func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO categories (name) VALUES (?)`, c.Name)
	if err != nil {
		return mapSQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*model.Category, error) {
	var c model.Category
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, is_active, created_at, updated_at
		 FROM categories WHERE id=? AND is_active=1 LIMIT 1`, id).
		Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapSQLError(err)
	}
	return &c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, is_active, created_at, updated_at
		 FROM categories WHERE is_active=1 ORDER BY name`)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) UpdateName(ctx context.Context, id uint64, name string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE categories SET name=? WHERE id=? AND is_active=1`, strings.TrimSpace(name), id)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(res)
}

func (r *CategoryRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE categories SET is_active=0 WHERE id=? AND is_active=1`, id)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(res)
}
