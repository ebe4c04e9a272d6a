package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/middleware"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/repository"
)

// PostHandler serves user-authored posts. Reads are public; writes need
// an authenticated user, and updates are restricted to the author or a
// staff account.
type PostHandler struct {
	repo *repository.PostRepo
}

func NewPostHandler(repo *repository.PostRepo) *PostHandler {
	return &PostHandler{repo: repo}
}

type postRequest struct {
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	ImageURL   *string `json:"imageUrl"`
	CategoryID uint64  `json:"categoryId"`
	DistrictID uint64  `json:"districtId"`
	TalukaID   *uint64 `json:"talukaId"`
}

func (r postRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return apperror.NewValidation("title is required")
	}
	if strings.TrimSpace(r.Body) == "" {
		return apperror.NewValidation("body is required")
	}
	if r.CategoryID == 0 {
		return apperror.NewValidation("categoryId is required")
	}
	if r.DistrictID == 0 {
		return apperror.NewValidation("districtId is required")
	}
	return nil
}

func (h *PostHandler) Create(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	p := &model.Post{
		Title:      req.Title,
		Body:       req.Body,
		ImageURL:   req.ImageURL,
		CategoryID: req.CategoryID,
		DistrictID: req.DistrictID,
		TalukaID:   req.TalukaID,
		AuthorID:   u.ID,
		IsActive:   true,
	}
	if err := h.repo.Create(c.Request().Context(), p); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return apperror.NewValidation("category, district or taluka does not exist")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusCreated, "post created", p)
}

func (h *PostHandler) List(c echo.Context) error {
	page, limit, offset := pageParams(c)
	var f repository.PostFilter
	f.DistrictID, _ = strconv.ParseUint(c.QueryParam("districtId"), 10, 64)
	f.TalukaID, _ = strconv.ParseUint(c.QueryParam("talukaId"), 10, 64)
	f.CategoryID, _ = strconv.ParseUint(c.QueryParam("categoryId"), 10, 64)
	f.AuthorID, _ = strconv.ParseUint(c.QueryParam("authorId"), 10, 64)

	posts, total, err := h.repo.List(c.Request().Context(), f, limit, offset)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", map[string]any{
		"posts":      posts,
		"pagination": NewPagination(page, limit, total),
	})
}

func (h *PostHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("post not found")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", p)
}

// canEdit allows the author or any staff account.
func canEdit(c echo.Context, authorID uint64) bool {
	if a := middleware.CurrentAdmin(c); a != nil {
		return true
	}
	u := middleware.CurrentUser(c)
	return u != nil && u.ID == authorID
}

func (h *PostHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("post not found")
		}
		return apperror.NewInternal(err)
	}
	if !canEdit(c, p.AuthorID) {
		return apperror.NewForbidden("you cannot edit this post")
	}

	var req postRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	p.Title = req.Title
	p.Body = req.Body
	p.ImageURL = req.ImageURL
	p.CategoryID = req.CategoryID
	p.DistrictID = req.DistrictID
	p.TalukaID = req.TalukaID
	if err := h.repo.Update(c.Request().Context(), p); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperror.NewNotFound("post not found")
		case errors.Is(err, repository.ErrForeignKey):
			return apperror.NewValidation("category, district or taluka does not exist")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "post updated", p)
}

func (h *PostHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("post not found")
		}
		return apperror.NewInternal(err)
	}
	if !canEdit(c, p.AuthorID) {
		return apperror.NewForbidden("you cannot delete this post")
	}

	if err := h.repo.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("post not found")
		}
		return apperror.NewInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
