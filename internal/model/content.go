package model

import "time"

// Content entities follow one lifecycle: create, read/list filtered by
// is_active, update, soft delete by flipping is_active off.

// District is a top-level administrative region. Name is unique.
type District struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Taluka is a sub-district; its name is unique within its district.
type Taluka struct {
	ID         uint64    `json:"id"`
	DistrictID uint64    `json:"districtId"`
	Name       string    `json:"name"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Category groups posts. Name is unique.
type Category struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Post is user-authored content scoped to a category and a location.
type Post struct {
	ID         uint64    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	CategoryID uint64    `json:"categoryId"`
	DistrictID uint64    `json:"districtId"`
	TalukaID   *uint64   `json:"talukaId,omitempty"`
	AuthorID   uint64    `json:"authorId"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// News is staff-authored content published by an admin.
type News struct {
	ID         uint64    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	DistrictID uint64    `json:"districtId"`
	TalukaID   *uint64   `json:"talukaId,omitempty"`
	AuthorID   uint64    `json:"authorId"` // admins.id
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
