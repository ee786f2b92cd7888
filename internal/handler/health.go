package handler

import (
	"github.com/labstack/echo/v4"
)

// Health is the liveness check used by load balancers and monitoring.
func Health(c echo.Context) error {
	return message(c, "ok")
}
