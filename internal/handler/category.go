package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/repository"
)

// CategoryHandler serves the post categories.
type CategoryHandler struct {
	repo *repository.CategoryRepo
}

func NewCategoryHandler(repo *repository.CategoryRepo) *CategoryHandler {
	return &CategoryHandler{repo: repo}
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req nameRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	cat := &model.Category{Name: req.Name, IsActive: true}
	if err := h.repo.Create(c.Request().Context(), cat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperror.NewConflict("category already exists")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusCreated, "category created", cat)
}

func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.repo.List(c.Request().Context())
	if err != nil {
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", categories)
}

func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	cat, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("category not found")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", cat)
}

func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req nameRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	if err := h.repo.UpdateName(c.Request().Context(), id, req.Name); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperror.NewNotFound("category not found")
		case errors.Is(err, repository.ErrDuplicate):
			return apperror.NewConflict("category already exists")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "category updated", nil)
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.repo.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("category not found")
		}
		return apperror.NewInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
