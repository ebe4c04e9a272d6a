package router

import (
	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/config"
)

// registerAuthRoutes registers the user-facing auth endpoints. The
// credential routes depend on AUTH_MODE; the session routes (refresh,
// logout, me) are mode-independent.
func registerAuthRoutes(e *echo.Echo, d Deps) {
	g := e.Group("/api/auth")

	switch d.Cfg.AuthMode {
	case config.AuthModePassword:
		g.POST("/register", d.Auth.Register, d.RegisterLimit)
		g.POST("/login", d.Auth.Login, d.AuthLimit)
	case config.AuthModeOTP:
		g.POST("/register/send-otp", d.Auth.SendRegisterOtp, d.RegisterLimit)
		g.POST("/register/verify-otp", d.Auth.VerifyRegisterOtp, d.AuthLimit)
		g.POST("/login/send-otp", d.Auth.SendLoginOtp, d.AuthLimit)
		g.POST("/login/resend-otp", d.Auth.SendLoginOtp, d.AuthLimit)
		g.POST("/login/verify-otp", d.Auth.VerifyLoginOtp, d.AuthLimit)
	}

	g.POST("/refresh", d.Auth.Refresh, d.AuthLimit)

	auth := g.Group("", d.Authenticator.Authenticate)
	auth.POST("/logout", d.Auth.Logout)
	auth.POST("/logout-all", d.Auth.LogoutAll)
	auth.GET("/me", d.Users.Me)
	auth.PUT("/me", d.Users.UpdateProfile)
}
