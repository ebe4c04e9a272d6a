package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/repository"
)

// DistrictHandler serves the district reference data.
type DistrictHandler struct {
	repo *repository.DistrictRepo
}

func NewDistrictHandler(repo *repository.DistrictRepo) *DistrictHandler {
	return &DistrictHandler{repo: repo}
}

type nameRequest struct {
	Name string `json:"name"`
}

func (r nameRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperror.NewValidation("name is required")
	}
	return nil
}

func (h *DistrictHandler) Create(c echo.Context) error {
	var req nameRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	d := &model.District{Name: req.Name, IsActive: true}
	if err := h.repo.Create(c.Request().Context(), d); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperror.NewConflict("district already exists")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusCreated, "district created", d)
}

func (h *DistrictHandler) List(c echo.Context) error {
	districts, err := h.repo.List(c.Request().Context())
	if err != nil {
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", districts)
}

func (h *DistrictHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("district not found")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", d)
}

func (h *DistrictHandler) Update(c echo.Context) error {
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
			return apperror.NewNotFound("district not found")
		case errors.Is(err, repository.ErrDuplicate):
			return apperror.NewConflict("district already exists")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "district updated", nil)
}

func (h *DistrictHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.repo.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("district not found")
		}
		return apperror.NewInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
