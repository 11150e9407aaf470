package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-platform/internal/service"
)

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetCategory(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.Catalog.GetCategory(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var in service.CategoryInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.Catalog.CreateCategory(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	var in service.CategoryInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	cat, err := h.Catalog.UpdateCategory(ctx, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Catalog.DeleteCategory(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) ListLevels(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.Catalog.ListLevels(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetLevel(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	lvl, err := h.Catalog.GetLevel(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lvl)
}

func (h *CatalogHandler) CreateLevel(c echo.Context) error {
	var in service.LevelInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	lvl, err := h.Catalog.CreateLevel(ctx, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, lvl)
}

func (h *CatalogHandler) UpdateLevel(c echo.Context) error {
	var in service.LevelInput
	if err := bindValid(c, &in); err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	lvl, err := h.Catalog.UpdateLevel(ctx, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lvl)
}

func (h *CatalogHandler) DeleteLevel(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Catalog.DeleteLevel(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
