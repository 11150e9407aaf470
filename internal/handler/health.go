package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is used by load balancers and monitoring to verify that the
// process is serving requests.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, ok("Server is running"))
}
