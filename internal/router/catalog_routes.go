package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-platform/internal/handler"
)

// CatalogMiddleware is applied per route.  Read wraps public GETs; Write is
// the admin chain in order (authenticate, role gate, rate limit, cache
// invalidation).
type CatalogMiddleware struct {
	Read  echo.MiddlewareFunc
	Write []echo.MiddlewareFunc
}

// RegisterCatalog mounts /courses.  Middleware is attached per route rather
// than with Group.Use, which would also catch unknown /courses paths and
// answer them with 401 instead of 404.  echo matches static segments before
// params, so /courses/categories never reaches GetCourse.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, thumbs *handler.ThumbnailHandler, mw CatalogMiddleware) {
	g := e.Group("/courses")
	read, write := mw.Read, mw.Write

	g.GET("/categories", h.ListCategories, read)
	g.GET("/categories/:id", h.GetCategory, read)
	g.POST("/categories", h.CreateCategory, write...)
	g.PUT("/categories/:id", h.UpdateCategory, write...)
	g.DELETE("/categories/:id", h.DeleteCategory, write...)

	g.GET("/levels", h.ListLevels, read)
	g.GET("/levels/:id", h.GetLevel, read)
	g.POST("/levels", h.CreateLevel, write...)
	g.PUT("/levels/:id", h.UpdateLevel, write...)
	g.DELETE("/levels/:id", h.DeleteLevel, write...)

	g.GET("/chapters/:id", h.GetChapter, read)
	g.POST("/chapters", h.CreateChapter, write...)
	g.PUT("/chapters/:id", h.UpdateChapter, write...)
	g.DELETE("/chapters/:id", h.DeleteChapter, write...)

	g.GET("", h.ListCourses, read)
	g.GET("/:id", h.GetCourse, read)
	g.POST("", h.CreateCourse, write...)
	g.PUT("/:id", h.UpdateCourse, write...)
	g.DELETE("/:id", h.DeleteCourse, write...)

	g.GET("/:id/chapters", h.ListChapters, read)
	g.POST("/:id/chapters", h.CreateChapter, write...)

	if thumbs != nil {
		g.POST("/:id/thumbnail-upload", thumbs.Upload, write...)
		g.POST("/:id/thumbnail", thumbs.Confirm, write...)
	}
}
