package router

import (
	"github.com/labstack/echo/v4"

	"github.com/omkarjadhav/lokvarta/internal/middleware"
	"github.com/omkarjadhav/lokvarta/internal/model"
)

// registerContentRoutes registers the reference data, posts, news and
// upload endpoints.
//
// Reference data reads require a session; posts and news reads are
// public and flow through the response cache. Reference data writes are
// staff-only, with editors limited to renames.
func registerContentRoutes(e *echo.Echo, d Deps) {
	writeRoles := middleware.RequireAdminRole(model.RoleAdmin)
	editRoles := middleware.RequireAdminRole(model.RoleAdmin, model.RoleEditor)

	districts := e.Group("/api/districts", d.Authenticator.Authenticate)
	districts.GET("", d.Districts.List)
	districts.GET("/:id", d.Districts.Get)
	districts.POST("", d.Districts.Create, writeRoles)
	districts.PUT("/:id", d.Districts.Update, editRoles)
	districts.DELETE("/:id", d.Districts.Delete, writeRoles)

	talukas := e.Group("/api/talukas", d.Authenticator.Authenticate)
	talukas.GET("", d.Talukas.List)
	talukas.GET("/:id", d.Talukas.Get)
	talukas.POST("", d.Talukas.Create, writeRoles)
	talukas.PUT("/:id", d.Talukas.Update, editRoles)
	talukas.DELETE("/:id", d.Talukas.Delete, writeRoles)

	categories := e.Group("/api/categories", d.Authenticator.Authenticate)
	categories.GET("", d.Categories.List)
	categories.GET("/:id", d.Categories.Get)
	categories.POST("", d.Categories.Create, writeRoles)
	categories.PUT("/:id", d.Categories.Update, editRoles)
	categories.DELETE("/:id", d.Categories.Delete, writeRoles)

	posts := e.Group("/api/posts")
	posts.GET("", d.Posts.List, d.Cache)
	posts.GET("/:id", d.Posts.Get, d.Cache)
	posts.POST("", d.Posts.Create, d.Authenticator.Authenticate)
	posts.PUT("/:id", d.Posts.Update, d.Authenticator.Authenticate)
	posts.DELETE("/:id", d.Posts.Delete, d.Authenticator.Authenticate)

	news := e.Group("/api/news")
	news.GET("", d.News.List, d.Cache)
	news.GET("/:id", d.News.Get, d.Cache)
	news.POST("", d.News.Create, d.Authenticator.Authenticate, editRoles)
	news.PUT("/:id", d.News.Update, d.Authenticator.Authenticate, editRoles)
	news.DELETE("/:id", d.News.Delete, d.Authenticator.Authenticate, writeRoles)

	upload := e.Group("/api/upload", d.Authenticator.Authenticate)
	upload.POST("", d.Upload.Upload)
	upload.PATCH("", d.Upload.Move, middleware.RequireAdmin)
	upload.DELETE("", d.Upload.Delete, middleware.RequireAdmin)
}
