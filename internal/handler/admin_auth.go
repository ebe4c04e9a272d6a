package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/config"
	"github.com/omkarjadhav/lokvarta/internal/middleware"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/repository"
	"github.com/omkarjadhav/lokvarta/internal/service"
)

// AdminAuthHandler exposes the staff auth endpoints. Admins are
// password-only regardless of AUTH_MODE.
type AdminAuthHandler struct {
	svc    *service.AdminAuthService
	admins *repository.AdminRepo
	cfg    config.Config
}

func NewAdminAuthHandler(svc *service.AdminAuthService, admins *repository.AdminRepo, cfg config.Config) *AdminAuthHandler {
	return &AdminAuthHandler{svc: svc, admins: admins, cfg: cfg}
}

func (h *AdminAuthHandler) session(c echo.Context, a *model.Admin, pair service.TokenPair) sessionData {
	setRefreshCookie(c, h.cfg, pair.RefreshToken, pair.RefreshExpiresAt)
	return sessionData{
		Admin:        a,
		AccessToken:  pair.AccessToken,
		ExpiresAt:    pair.AccessExpiresAt,
		RefreshToken: pair.RefreshToken,
	}
}

type adminRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates a staff account. Routed behind the superadmin gate.
func (h *AdminAuthHandler) Register(c echo.Context) error {
	var req adminRegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperror.NewValidation("name is required")
	}
	if !validEmail(req.Email) {
		return apperror.NewValidation("a valid email is required")
	}
	if len(req.Password) < 8 {
		return apperror.NewValidation("password must be at least 8 characters")
	}

	a, err := h.svc.Register(c.Request().Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "admin created", a)
}

// Login exchanges staff credentials for a token pair in the admin token
// space.
func (h *AdminAuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperror.NewValidation("email and password are required")
	}

	a, pair, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "login successful", h.session(c, a, pair))
}

// Refresh rotates an admin refresh token.
func (h *AdminAuthHandler) Refresh(c echo.Context) error {
	presented := readRefreshToken(c)
	if presented == "" {
		return apperror.NewUnauthorized("refresh token required")
	}

	a, pair, err := h.svc.Refresh(c.Request().Context(), presented)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "token refreshed", h.session(c, a, pair))
}

// Logout revokes the presented admin refresh token.
func (h *AdminAuthHandler) Logout(c echo.Context) error {
	a := middleware.CurrentAdmin(c)
	if a == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if err := h.svc.Logout(c.Request().Context(), a.ID, readRefreshToken(c)); err != nil {
		return err
	}
	clearRefreshCookie(c, h.cfg)
	return respond(c, http.StatusOK, "logged out", nil)
}

// LogoutAll revokes every session of the current admin.
func (h *AdminAuthHandler) LogoutAll(c echo.Context) error {
	a := middleware.CurrentAdmin(c)
	if a == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if err := h.svc.LogoutAll(c.Request().Context(), a.ID); err != nil {
		return err
	}
	clearRefreshCookie(c, h.cfg)
	return respond(c, http.StatusOK, "logged out everywhere", nil)
}

// Me returns the authenticated admin.
func (h *AdminAuthHandler) Me(c echo.Context) error {
	a := middleware.CurrentAdmin(c)
	if a == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	return respond(c, http.StatusOK, "ok", a)
}

// List returns a page of staff accounts. Superadmin-only.
func (h *AdminAuthHandler) List(c echo.Context) error {
	page, limit, offset := pageParams(c)
	admins, total, err := h.admins.List(c.Request().Context(), limit, offset)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return respond(c, http.StatusOK, "ok", map[string]any{
		"admins":     admins,
		"pagination": NewPagination(page, limit, total),
	})
}
