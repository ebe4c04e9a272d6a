package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/config"
)

// refreshCookieName holds the refresh token between sessions. Scoped to
// the auth endpoints so the token never rides along on content reads.
const refreshCookieName = "refresh_token"

const refreshCookiePath = "/api"

// setRefreshCookie writes the refresh token as an http-only cookie.
// SameSite and Secure come from config; production forces Secure on.
func setRefreshCookie(c echo.Context, cfg config.Config, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Domain:   cfg.CookieDomain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	})
}

// clearRefreshCookie expires the cookie. Attributes must match the ones
// used when setting it or browsers keep the old cookie around.
func clearRefreshCookie(c echo.Context, cfg config.Config) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		Domain:   cfg.CookieDomain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	})
}

// readRefreshToken looks for the refresh token in the cookie first and
// falls back to a JSON body field for non-browser clients.
func readRefreshToken(c echo.Context) string {
	if ck, err := c.Cookie(refreshCookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}
