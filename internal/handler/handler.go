// Package handler adapts HTTP requests to the auth and catalog services.
// Handlers bind and validate input, call a service and write JSON; every
// error is returned to echo and rendered by apperror.HTTPErrorHandler.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-platform/internal/apperror"
)

// dbTimeout bounds the store work done for a single request.
const dbTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// bind decodes the request into dst.  Malformed bodies and query values are
// reported as a validation error, not echo's plain 400.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperror.Validation("invalid request body", nil)
	}
	return nil
}

func bindValid(c echo.Context, dst any) error {
	if err := bind(c, dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

// message is the body of auth endpoints that only report an outcome.
type message struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(msg string) message { return message{Success: true, Message: msg} }
