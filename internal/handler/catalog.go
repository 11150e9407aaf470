package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/middleware"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/service"
)

// Catalog is the part of service.CatalogService used by CatalogHandler.
type Catalog interface {
	ListCourses(ctx context.Context, q service.CourseQuery) (*service.CoursePage, error)
	GetCourse(ctx context.Context, id string) (*model.Course, error)
	CreateCourse(ctx context.Context, callerID string, in service.CreateCourseInput) (*model.Course, error)
	UpdateCourse(ctx context.Context, id string, in service.UpdateCourseInput) (*model.Course, error)
	SetCourseThumbnail(ctx context.Context, id, url string) (*model.Course, error)
	DeleteCourse(ctx context.Context, id string) error
	CourseExists(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, in service.CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, in service.CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListLevels(ctx context.Context) ([]model.Level, error)
	GetLevel(ctx context.Context, id string) (*model.Level, error)
	CreateLevel(ctx context.Context, in service.LevelInput) (*model.Level, error)
	UpdateLevel(ctx context.Context, id string, in service.LevelInput) (*model.Level, error)
	DeleteLevel(ctx context.Context, id string) error

	ListChapters(ctx context.Context, courseID string) ([]model.Chapter, error)
	GetChapter(ctx context.Context, id string) (*model.Chapter, error)
	CreateChapter(ctx context.Context, callerID string, in service.CreateChapterInput) (*model.Chapter, error)
	UpdateChapter(ctx context.Context, id string, in service.UpdateChapterInput) (*model.Chapter, error)
	DeleteChapter(ctx context.Context, id string) error
}

// CatalogHandler serves courses, categories, levels and chapters.  Reads
// are public; writes are mounted behind the admin role gate.
type CatalogHandler struct {
	Catalog Catalog
}

func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog}
}

// caller returns the id of the authenticated user.
func caller(c echo.Context) (string, error) {
	id, found := middleware.IdentityFrom(c.Request().Context())
	if !found {
		return "", apperror.Authentication("authentication required")
	}
	return id.UserID, nil
}

// ListCourses handles GET /courses?query&category&level&authorId&published&page&limit.
func (h *CatalogHandler) ListCourses(c echo.Context) error {
	var q service.CourseQuery
	if err := bindValid(c, &q); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.Catalog.ListCourses(ctx, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *CatalogHandler) GetCourse(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	course, err := h.Catalog.GetCourse(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

// CreateCourse handles POST /courses.  The caller becomes the author unless
// authorId is given.
func (h *CatalogHandler) CreateCourse(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var in service.CreateCourseInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	course, err := h.Catalog.CreateCourse(ctx, uid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, course)
}

func (h *CatalogHandler) UpdateCourse(c echo.Context) error {
	var in service.UpdateCourseInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	course, err := h.Catalog.UpdateCourse(ctx, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

func (h *CatalogHandler) DeleteCourse(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Catalog.DeleteCourse(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
