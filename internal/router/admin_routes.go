package router

import (
	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/middleware"
	"github.com/omkarjadhav/lokvarta/internal/model"
)

// registerAdminRoutes registers staff auth and the admin console
// endpoints. Admin accounts authenticate with passwords regardless of
// the user-facing AUTH_MODE.
func registerAdminRoutes(e *echo.Echo, d Deps) {
	g := e.Group("/api/admin")

	g.POST("/login", d.AdminAuth.Login, d.AuthLimit)
	g.POST("/refresh", d.AdminAuth.Refresh, d.AuthLimit)

	auth := g.Group("", d.Authenticator.Authenticate, middleware.RequireAdmin)
	auth.POST("/logout", d.AdminAuth.Logout)
	auth.POST("/logout-all", d.AdminAuth.LogoutAll)
	auth.GET("/me", d.AdminAuth.Me)

	// Staff management is superadmin territory.
	super := auth.Group("", middleware.RequireAdminRole(model.RoleSuperadmin))
	super.POST("/register", d.AdminAuth.Register)
	super.GET("/admins", d.AdminAuth.List)

	// Reader-account management.
	users := auth.Group("/users", middleware.RequireAdminRole(model.RoleAdmin))
	users.GET("", d.Users.List)
	users.PATCH("/:id/active", d.Users.SetActive)
	users.DELETE("/:id", d.Users.Delete)
}
