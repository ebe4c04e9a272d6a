package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/middleware"
	"github.com/omkarjadhav/lokvarta/internal/repository"
)

// UserHandler serves the authenticated user's own profile plus the
// admin-side user management endpoints.
type UserHandler struct {
	users *repository.UserRepo
}

func NewUserHandler(users *repository.UserRepo) *UserHandler {
	return &UserHandler{users: users}
}

// Me returns the authenticated user.
func (h *UserHandler) Me(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	return respond(c, http.StatusOK, "ok", u)
}

type updateProfileRequest struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     *string `json:"email"`
}

// UpdateProfile changes the caller's names and, optionally, email.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return apperror.NewUnauthorized("authentication required")
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return apperror.NewValidation("first name is required")
	}
	if req.Email != nil {
		lower := strings.ToLower(strings.TrimSpace(*req.Email))
		if !validEmail(lower) {
			return apperror.NewValidation("a valid email is required")
		}
		req.Email = &lower
	}

	err := h.users.UpdateProfile(c.Request().Context(), u.ID, req.FirstName, req.LastName, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperror.NewConflict("email already in use")
		}
		return apperror.NewInternal(err)
	}

	fresh, err := h.users.GetByID(c.Request().Context(), u.ID)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "profile updated", fresh)
}

// ----- admin-side user management -----

// List returns a page of users for the admin console.
func (h *UserHandler) List(c echo.Context) error {
	page, limit, offset := pageParams(c)
	users, total, err := h.users.List(c.Request().Context(), limit, offset)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", map[string]any{
		"users":      users,
		"pagination": NewPagination(page, limit, total),
	})
}

type setActiveRequest struct {
	IsActive bool `json:"isActive"`
}

// SetActive flips a user's active flag. Deactivation takes effect on
// the user's next request, not at token expiry.
func (h *UserHandler) SetActive(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req setActiveRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	if err := h.users.SetActive(c.Request().Context(), id, req.IsActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("user not found")
		}
		return apperror.NewInternal(err)
	}
	msg := "user deactivated"
	if req.IsActive {
		msg = "user activated"
	}
	return respond(c, http.StatusOK, msg, nil)
}

// Delete soft-deletes a user. The row stays for audit; every lookup
// filters it out from now on.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.users.SoftDelete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NewNotFound("user not found")
		}
		return apperror.NewInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
