package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-platform/internal/logging"
)

// Body is the error envelope written to clients.
type Body struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine code, a human message and optional field errors.
type ErrorDetail struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// HTTPErrorHandler is installed as echo's error handler so every handler and
// middleware can simply return an error.  Internal failures are logged with
// their cause and reduced to a generic message.
func HTTPErrorHandler(logger logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, detail := translate(err)
		detail.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)

		if status >= http.StatusInternalServerError {
			logger.Error(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"request_id", detail.RequestID,
				"error", err.Error(),
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, Body{Success: false, Error: detail})
		}
		if writeErr != nil {
			logger.Warn(c.Request().Context(), "write error response", "error", writeErr.Error())
		}
	}
}

func translate(err error) (int, ErrorDetail) {
	var appErr *Error
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Kind == KindInternal {
			msg = "internal server error"
		}
		return appErr.Kind.HTTPStatus(), ErrorDetail{Code: appErr.Code, Message: msg, Fields: appErr.Fields}
	}

	// echo's own errors: unknown route, bad method, bind failures, body limit.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && he.Code < http.StatusInternalServerError {
			msg = s
		}
		return he.Code, ErrorDetail{Code: codeForStatus(he.Code), Message: msg}
	}

	return http.StatusInternalServerError, ErrorDetail{Code: CodeInternal, Message: "internal server error"}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return CodeInvalidRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimited
	}
	if status >= http.StatusInternalServerError {
		return CodeInternal
	}
	return fmt.Sprintf("HTTP_%d", status)
}
