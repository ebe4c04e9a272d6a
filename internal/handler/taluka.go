package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/repository"
)

// TalukaHandler serves the taluka reference data. Talukas nest under
// districts; listing accepts ?districtId= to scope the result.
type TalukaHandler struct {
	repo *repository.TalukaRepo
}

func NewTalukaHandler(repo *repository.TalukaRepo) *TalukaHandler {
	return &TalukaHandler{repo: repo}
}

type talukaCreateRequest struct {
	DistrictID uint64 `json:"districtId"`
	Name       string `json:"name"`
}

func (h *TalukaHandler) Create(c echo.Context) error {
	var req talukaCreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if req.DistrictID == 0 {
		return apperror.NewValidation("districtId is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperror.NewValidation("name is required")
	}

	t := &model.Taluka{DistrictID: req.DistrictID, Name: req.Name, IsActive: true}
	if err := h.repo.Create(c.Request().Context(), t); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return apperror.NewConflict("taluka already exists in this district")
		case errors.Is(err, repository.ErrForeignKey):
			return apperror.NewValidation("district does not exist")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusCreated, "taluka created", t)
}

func (h *TalukaHandler) List(c echo.Context) error {
	districtID, _ := strconv.ParseUint(c.QueryParam("districtId"), 10, 64)
	talukas, err := h.repo.ListByDistrict(c.Request().Context(), districtID)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", talukas)
}

func (h *TalukaHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	t, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("taluka not found")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", t)
}

func (h *TalukaHandler) Update(c echo.Context) error {
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
			return apperror.NewNotFound("taluka not found")
		case errors.Is(err, repository.ErrDuplicate):
			return apperror.NewConflict("taluka already exists in this district")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "taluka updated", nil)
}

func (h *TalukaHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.repo.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("taluka not found")
		}
		return apperror.NewInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
