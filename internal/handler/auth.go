package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/config"
	"github.com/omkarjadhav/lokvarta/internal/middleware"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/service"
)

// AuthHandler exposes the user-facing auth endpoints. Which subset is
// routed depends on AUTH_MODE; the handler itself serves both flow
// families.
type AuthHandler struct {
	svc *service.AuthService
	cfg config.Config
}

func NewAuthHandler(svc *service.AuthService, cfg config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

// sessionData is the payload returned on every successful credential
// exchange. The refresh token also travels in the http-only cookie;
// non-browser clients read it from the body instead.
type sessionData struct {
	User         *model.User  `json:"user,omitempty"`
	Admin        *model.Admin `json:"admin,omitempty"`
	AccessToken  string       `json:"accessToken"`
	ExpiresAt    time.Time    `json:"accessExpiresAt"`
	RefreshToken string       `json:"refreshToken"`
}

func (h *AuthHandler) session(c echo.Context, u *model.User, pair service.TokenPair) sessionData {
	setRefreshCookie(c, h.cfg, pair.RefreshToken, pair.RefreshExpiresAt)
	return sessionData{
		User:         u,
		AccessToken:  pair.AccessToken,
		ExpiresAt:    pair.AccessExpiresAt,
		RefreshToken: pair.RefreshToken,
	}
}

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-3 && strings.Contains(s[at:], ".")
}

func validPhone(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if len(s) < 10 || len(s) > 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ----- password mode -----

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Register creates an account from email and password and signs it in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if !validEmail(req.Email) {
		return apperror.NewValidation("a valid email is required")
	}
	if len(req.Password) < 8 {
		return apperror.NewValidation("password must be at least 8 characters")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return apperror.NewValidation("first name is required")
	}

	u, pair, err := h.svc.Register(c.Request().Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "registration successful", h.session(c, u, pair))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperror.NewValidation("email and password are required")
	}

	u, pair, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "login successful", h.session(c, u, pair))
}

// ----- otp mode -----

type sendOtpRequest struct {
	Phone     string `json:"phone"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// SendRegisterOtp starts an OTP registration for a phone number.
func (h *AuthHandler) SendRegisterOtp(c echo.Context) error {
	var req sendOtpRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if !validPhone(req.Phone) {
		return apperror.NewValidation("a valid phone number is required")
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return apperror.NewValidation("first name is required")
	}

	if err := h.svc.SendRegisterOtp(c.Request().Context(), req.Phone, req.FirstName, req.LastName); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "verification code sent", nil)
}

type verifyOtpRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"otp"`
}

// VerifyRegisterOtp completes an OTP registration and signs the new
// account in.
func (h *AuthHandler) VerifyRegisterOtp(c echo.Context) error {
	var req verifyOtpRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if !validPhone(req.Phone) || len(req.Code) != 6 {
		return apperror.NewValidation("phone and a 6-digit otp are required")
	}

	u, pair, err := h.svc.VerifyRegisterOtp(c.Request().Context(), req.Phone, req.Code)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "registration successful", h.session(c, u, pair))
}

// SendLoginOtp issues a login code. Resend shares this path and the
// same 60-second reissue window.
func (h *AuthHandler) SendLoginOtp(c echo.Context) error {
	var req sendOtpRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if !validPhone(req.Phone) {
		return apperror.NewValidation("a valid phone number is required")
	}

	if err := h.svc.SendLoginOtp(c.Request().Context(), req.Phone); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "verification code sent", nil)
}

// VerifyLoginOtp completes an OTP login.
func (h *AuthHandler) VerifyLoginOtp(c echo.Context) error {
	var req verifyOtpRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}
	if !validPhone(req.Phone) || len(req.Code) != 6 {
		return apperror.NewValidation("phone and a 6-digit otp are required")
	}

	u, pair, err := h.svc.VerifyLoginOtp(c.Request().Context(), req.Phone, req.Code)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "login successful", h.session(c, u, pair))
}

// ----- shared -----

// Refresh rotates the refresh token presented via cookie or body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	presented := readRefreshToken(c)
	if presented == "" {
		return apperror.NewUnauthorized("refresh token required")
	}

	u, pair, err := h.svc.Refresh(c.Request().Context(), presented)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "token refreshed", h.session(c, u, pair))
}

// Logout revokes the presented refresh token and clears the cookie. The
// cookie is cleared even when the token no longer matches.
func (h *AuthHandler) Logout(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if err := h.svc.Logout(c.Request().Context(), u.ID, readRefreshToken(c)); err != nil {
		return err
	}
	clearRefreshCookie(c, h.cfg)
	return respond(c, http.StatusOK, "logged out", nil)
}

// LogoutAll revokes every session of the current user.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	if err := h.svc.LogoutAll(c.Request().Context(), u.ID); err != nil {
		return err
	}
	clearRefreshCookie(c, h.cfg)
	return respond(c, http.StatusOK, "logged out everywhere", nil)
}
