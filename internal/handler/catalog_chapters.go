package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-platform/internal/service"
)

// ListChapters handles GET /courses/:id/chapters.
func (h *CatalogHandler) ListChapters(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Catalog.ListChapters(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetChapter(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	ch, err := h.Catalog.GetChapter(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ch)
}

// CreateChapter handles POST /courses/:id/chapters and POST /courses/chapters.
// On the first route the course comes from the path and overrides the body.
func (h *CatalogHandler) CreateChapter(c echo.Context) error {
	uid, err := caller(c)
	if err != nil {
		return err
	}
	var in service.CreateChapterInput
	if err := bind(c, &in); err != nil {
		return err
	}
	if courseID := c.Param("id"); courseID != "" {
		in.CourseID = courseID
	}
	if err := c.Validate(&in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	ch, err := h.Catalog.CreateChapter(ctx, uid, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ch)
}

func (h *CatalogHandler) UpdateChapter(c echo.Context) error {
	var in service.UpdateChapterInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	ch, err := h.Catalog.UpdateChapter(ctx, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *CatalogHandler) DeleteChapter(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Catalog.DeleteChapter(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
