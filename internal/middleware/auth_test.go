package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/repository"
	"github.com/omkarjadhav/lokvarta/internal/token"
)

type stubUserLookup struct{ users map[uint64]*model.User }

func (s stubUserLookup) GetByID(_ context.Context, id uint64) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

type stubAdminLookup struct{ admins map[uint64]*model.Admin }

func (s stubAdminLookup) GetByID(_ context.Context, id uint64) (*model.Admin, error) {
	if a, ok := s.admins[id]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func testTokens() *token.Service {
	return token.NewService(token.Config{
		UserAccessSecret:   strings.Repeat("a", 32),
		UserRefreshSecret:  strings.Repeat("b", 32),
		AdminAccessSecret:  strings.Repeat("c", 32),
		AdminRefreshSecret: strings.Repeat("d", 32),
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         "7d",
	})
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *token.Service, stubUserLookup, stubAdminLookup) {
	t.Helper()
	tokens := testTokens()
	users := stubUserLookup{users: map[uint64]*model.User{
		1: {ID: 1, FirstName: "Amit", IsActive: true, IsVerified: true},
		2: {ID: 2, FirstName: "Gone", IsActive: false},
	}}
	admins := stubAdminLookup{admins: map[uint64]*model.Admin{
		7: {ID: 7, Name: "Root", Role: model.RoleSuperadmin, IsActive: true},
		8: {ID: 8, Name: "Desk", Role: model.RoleEditor, IsActive: true},
	}}
	return NewAuthenticator(tokens, users, admins), tokens, users, admins
}

func invoke(auth *Authenticator, header string, inner echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := auth.Authenticate(inner)(c)
	return rec, err
}

func TestAuthenticateResolvesUserToken(t *testing.T) {
	auth, tokens, _, _ := newTestAuthenticator(t)
	raw, _, err := tokens.IssueAccess(token.AudienceUser, 1)
	require.NoError(t, err)

	var got *model.User
	_, err = invoke(auth, "Bearer "+raw, func(c echo.Context) error {
		got = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, uint64(1), got.ID)
}

func TestAuthenticateResolvesAdminToken(t *testing.T) {
	auth, tokens, _, _ := newTestAuthenticator(t)
	raw, _, err := tokens.IssueAccess(token.AudienceAdmin, 7)
	require.NoError(t, err)

	var got *model.Admin
	_, err = invoke(auth, "Bearer "+raw, func(c echo.Context) error {
		got = CurrentAdmin(c)
		assert.Nil(t, CurrentUser(c))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.RoleSuperadmin, got.Role)
}

func TestAuthenticateRejections(t *testing.T) {
	auth, tokens, _, _ := newTestAuthenticator(t)

	refresh, _, err := tokens.IssueRefresh(token.AudienceUser, 1)
	require.NoError(t, err)
	inactive, _, err := tokens.IssueAccess(token.AudienceUser, 2)
	require.NoError(t, err)
	missing, _, err := tokens.IssueAccess(token.AudienceUser, 99)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"refresh token on access check", "Bearer " + refresh},
		{"inactive user", "Bearer " + inactive},
		{"unknown principal", "Bearer " + missing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := invoke(auth, tc.header, func(c echo.Context) error {
				t.Fatal("handler should not run")
				return nil
			})
			require.Error(t, err)
		})
	}
}

func TestOptionalAuthenticatePassesThrough(t *testing.T) {
	auth, _, _, _ := newTestAuthenticator(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := auth.OptionalAuthenticate(func(c echo.Context) error {
		called = true
		assert.Nil(t, CurrentUser(c))
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRequireAdminRole(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	run := func(a *model.Admin, mw echo.MiddlewareFunc) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if a != nil {
			c.Set(ContextAdmin, a)
		}
		return mw(handler)(c)
	}

	superOnly := RequireAdminRole(model.RoleSuperadmin)
	editorsToo := RequireAdminRole(model.RoleAdmin, model.RoleEditor)

	assert.NoError(t, run(&model.Admin{Role: model.RoleSuperadmin}, superOnly))
	assert.Error(t, run(&model.Admin{Role: model.RoleEditor}, superOnly))
	assert.Error(t, run(nil, superOnly))

	assert.NoError(t, run(&model.Admin{Role: model.RoleEditor}, editorsToo))
	// A superadmin passes every gate even when not listed.
	assert.NoError(t, run(&model.Admin{Role: model.RoleSuperadmin}, editorsToo))
	assert.Error(t, run(nil, editorsToo))
}
