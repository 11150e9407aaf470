package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/storage"
)

// Presigner hands out upload URLs for course thumbnails and confirms that
// the object landed in the bucket.
type Presigner interface {
	PresignUpload(ctx context.Context, courseID, contentType string) (*storage.ThumbnailUpload, error)
	ConfirmUpload(ctx context.Context, courseID, key string) (string, error)
}

// ThumbnailHandler issues presigned S3 uploads for course thumbnails.
type ThumbnailHandler struct {
	Catalog   Catalog
	Presigner Presigner
}

func NewThumbnailHandler(catalog Catalog, presigner Presigner) *ThumbnailHandler {
	return &ThumbnailHandler{Catalog: catalog, Presigner: presigner}
}

type thumbnailReq struct {
	ContentType string `json:"contentType" validate:"required"`
}

type confirmThumbnailReq struct {
	Key string `json:"key" validate:"required"`
}

// Upload handles POST /courses/:id/thumbnail-upload.  The client PUTs the
// image to uploadUrl before expiresAt and then calls Confirm with the key.
// The course is left untouched here.
func (h *ThumbnailHandler) Upload(c echo.Context) error {
	var req thumbnailReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	courseID := c.Param("id")
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Catalog.CourseExists(ctx, courseID); err != nil {
		return err
	}
	up, err := h.Presigner.PresignUpload(ctx, courseID, req.ContentType)
	if errors.Is(err, storage.ErrUnsupportedType) {
		return apperror.Validation("unsupported thumbnail type",
			map[string]string{"contentType": "must be image/jpeg, image/png or image/webp"})
	}
	if err != nil {
		return apperror.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"upload": up})
}

// Confirm handles POST /courses/:id/thumbnail.  The thumbnail URL is stored
// only once the object exists in the bucket.
func (h *ThumbnailHandler) Confirm(c echo.Context) error {
	var req confirmThumbnailReq
	if err := bindValid(c, &req); err != nil {
		return err
	}
	courseID := c.Param("id")
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Catalog.CourseExists(ctx, courseID); err != nil {
		return err
	}
	url, err := h.Presigner.ConfirmUpload(ctx, courseID, req.Key)
	switch {
	case errors.Is(err, storage.ErrInvalidKey):
		return apperror.Validation("invalid thumbnail key",
			map[string]string{"key": "was not issued for this course"})
	case errors.Is(err, storage.ErrNotUploaded):
		return apperror.Validation("thumbnail not uploaded",
			map[string]string{"key": "no object has been uploaded at this key"})
	case err != nil:
		return apperror.Internal(err)
	}
	course, err := h.Catalog.SetCourseThumbnail(ctx, courseID, url)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}
