// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/config"
	"github.com/omkarjadhav/lokvarta/internal/handler"
	"github.com/omkarjadhav/lokvarta/internal/middleware"
)

// Deps carries everything the route tables need. Limiters and the cache
// are prebuilt middleware so tests can swap in no-ops.
type Deps struct {
	Cfg config.Config

	Auth       *handler.AuthHandler
	AdminAuth  *handler.AdminAuthHandler
	Users      *handler.UserHandler
	Districts  *handler.DistrictHandler
	Talukas    *handler.TalukaHandler
	Categories *handler.CategoryHandler
	Posts      *handler.PostHandler
	News       *handler.NewsHandler
	Upload     *handler.UploadHandler
	Health     *handler.HealthHandler

	Authenticator *middleware.Authenticator

	GeneralLimit  echo.MiddlewareFunc
	AuthLimit     echo.MiddlewareFunc
	RegisterLimit echo.MiddlewareFunc
	Cache         echo.MiddlewareFunc
}

// New builds the Echo instance with the global middleware chain and all
// route tables registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(middleware.Recover)
	e.Use(middleware.RequestLogger)
	e.Use(d.GeneralLimit)

	e.GET("/healthz", d.Health.Health)

	registerAuthRoutes(e, d)
	registerAdminRoutes(e, d)
	registerContentRoutes(e, d)
	return e
}
