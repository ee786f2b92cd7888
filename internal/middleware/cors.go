// Package middleware holds the echo middleware of the gateway: CORS and
// identity, plus the Redis cache and rate limiter.
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORS stamps the JSON content type and the CORS headers on every response
// and answers preflight OPTIONS requests with an empty 200.
func CORS(allowOrigin string) echo.MiddlewareFunc {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			h.Set(echo.HeaderAccessControlAllowOrigin, allowOrigin)
			h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
			h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, Authorization")

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
