// Package middleware provides shared request processing for handlers:
// authentication, role gating, rate limiting, logging and caching.
package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/model"
	"github.com/omkarjadhav/lokvarta/internal/token"
)

// Context keys set by Authenticate. Handlers read the one matching the
// audience they serve.
const (
	ContextUser  = "user"
	ContextAdmin = "admin"
)

// UserLookup loads the authenticated user record for each request so
// deactivated and deleted accounts lose access the moment the flag
// flips, not when their token expires.
type UserLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// AdminLookup is the admin counterpart of UserLookup.
type AdminLookup interface {
	GetByID(ctx context.Context, id uint64) (*model.Admin, error)
}

// Authenticator verifies bearer tokens against both token spaces.
type Authenticator struct {
	tokens *token.Service
	users  UserLookup
	admins AdminLookup
}

func NewAuthenticator(tokens *token.Service, users UserLookup, admins AdminLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, admins: admins}
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// resolve probes the user token space first, then the admin one, and
// attaches whichever principal the token belongs to. Returns false when
// the token verifies in neither space or the account is gone/inactive.
func (a *Authenticator) resolve(c echo.Context, raw string) bool {
	ctx := c.Request().Context()

	if id, err := a.tokens.Verify(raw, token.AudienceUser, token.KindAccess); err == nil {
		u, err := a.users.GetByID(ctx, id)
		if err != nil || !u.IsActive {
			return false
		}
		c.Set(ContextUser, u)
		return true
	}

	if id, err := a.tokens.Verify(raw, token.AudienceAdmin, token.KindAccess); err == nil {
		adm, err := a.admins.GetByID(ctx, id)
		if err != nil || !adm.IsActive {
			return false
		}
		c.Set(ContextAdmin, adm)
		return true
	}
	return false
}

// Authenticate rejects requests without a valid access token from
// either token space.
func (a *Authenticator) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return apperror.NewUnauthorized("missing bearer token")
		}
		if !a.resolve(c, raw) {
			return apperror.NewUnauthorized("invalid or expired token")
		}
		return next(c)
	}
}

// OptionalAuthenticate attaches the principal when a valid token is
// present and lets the request through either way. Public listings use
// it so logged-in readers get personalized fields without a hard gate.
func (a *Authenticator) OptionalAuthenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if raw := bearerToken(c); raw != "" {
			a.resolve(c, raw)
		}
		return next(c)
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(ContextUser).(*model.User)
	return u
}

// CurrentAdmin returns the authenticated admin, or nil.
func CurrentAdmin(c echo.Context) *model.Admin {
	a, _ := c.Get(ContextAdmin).(*model.Admin)
	return a
}
