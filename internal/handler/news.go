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

// NewsHandler serves staff-authored news. Reads are public; the writes
// are routed behind the admin role gate.
type NewsHandler struct {
	repo *repository.NewsRepo
}

func NewNewsHandler(repo *repository.NewsRepo) *NewsHandler {
	return &NewsHandler{repo: repo}
}

type newsRequest struct {
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	ImageURL   *string `json:"imageUrl"`
	DistrictID uint64  `json:"districtId"`
	TalukaID   *uint64 `json:"talukaId"`
}

func (r newsRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return apperror.NewValidation("title is required")
	}
	if strings.TrimSpace(r.Body) == "" {
		return apperror.NewValidation("body is required")
	}
	if r.DistrictID == 0 {
		return apperror.NewValidation("districtId is required")
	}
	return nil
}

func (h *NewsHandler) Create(c echo.Context) error {
	a := middleware.CurrentAdmin(c)
	if a == nil {
		return apperror.NewForbidden("admin access required")
	}

	var req newsRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	n := &model.News{
		Title:      req.Title,
		Body:       req.Body,
		ImageURL:   req.ImageURL,
		DistrictID: req.DistrictID,
		TalukaID:   req.TalukaID,
		AuthorID:   a.ID,
		IsActive:   true,
	}
	if err := h.repo.Create(c.Request().Context(), n); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return apperror.NewValidation("district or taluka does not exist")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusCreated, "news created", n)
}

func (h *NewsHandler) List(c echo.Context) error {
	page, limit, offset := pageParams(c)
	districtID, _ := strconv.ParseUint(c.QueryParam("districtId"), 10, 64)

	items, total, err := h.repo.List(c.Request().Context(), districtID, limit, offset)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", map[string]any{
		"news":       items,
		"pagination": NewPagination(page, limit, total),
	})
}

func (h *NewsHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	n, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("news not found")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", n)
}

func (h *NewsHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	n, err := h.repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("news not found")
		}
		return apperror.NewInternal(err)
	}

	var req newsRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	n.Title = req.Title
	n.Body = req.Body
	n.ImageURL = req.ImageURL
	n.DistrictID = req.DistrictID
	n.TalukaID = req.TalukaID
	if err := h.repo.Update(c.Request().Context(), n); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperror.NewNotFound("news not found")
		case errors.Is(err, repository.ErrForeignKey):
			return apperror.NewValidation("district or taluka does not exist")
		}
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "news updated", n)
}

func (h *NewsHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.repo.Deactivate(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("news not found")
		}
		return apperror.NewInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
