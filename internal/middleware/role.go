package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/apperror"
	"github.com/omkarjadhav/lokvarta/internal/model"
)

// RequireAdmin rejects requests whose principal is not a staff account.
// It must run after Authenticate.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentAdmin(c) == nil {
			return apperror.NewForbidden("admin access required")
		}
		return next(c)
	}
}

// RequireAdminRole narrows RequireAdmin to a set of roles. A superadmin
// passes every gate.
func RequireAdminRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a := CurrentAdmin(c)
			if a == nil {
				return apperror.NewForbidden("admin access required")
			}
			if a.Role != model.RoleSuperadmin && !allowed[a.Role] {
				return apperror.NewForbidden("insufficient role")
			}
			return next(c)
		}
	}
}
