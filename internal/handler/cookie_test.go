package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRefreshCookieAttributes(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	cfg := testConfig()
	cfg.CookieSecure = true
	exp := time.Now().Add(7 * 24 * time.Hour)
	setRefreshCookie(c, cfg, "the-token", exp)

	res := http.Response{Header: rec.Header()}
	cookies := res.Cookies()
	require.Len(t, cookies, 1)
	ck := cookies[0]
	assert.Equal(t, refreshCookieName, ck.Name)
	assert.Equal(t, "the-token", ck.Value)
	assert.Equal(t, refreshCookiePath, ck.Path)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.WithinDuration(t, exp, ck.Expires, time.Minute)
}

func TestClearRefreshCookieExpiresIt(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	clearRefreshCookie(c, testConfig())

	res := http.Response{Header: rec.Header()}
	cookies := res.Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].Expires.Before(time.Now()))
}

func TestReadRefreshTokenPrefersCookie(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refreshToken":"from-body"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "from-cookie"})
	c := e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "from-cookie", readRefreshToken(c))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refreshToken":"from-body"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c = e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "from-body", readRefreshToken(c))

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	assert.Empty(t, readRefreshToken(c))
}
