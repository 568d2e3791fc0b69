package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers GET / for load balancers and uptime checks.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "✅ Backend server is running")
}
