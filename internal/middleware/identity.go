package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/utils"
)

const identityKey = "identity"

// Identity reads an optional "Authorization: Bearer <token>" header and
// stores the caller's model.Identity in the context.  A missing or invalid
// token leaves the request anonymous; handlers that need a caller reject
// anonymous identities themselves.
func Identity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id model.Identity
			if raw, ok := bearer(c.Request().Header.Get(echo.HeaderAuthorization)); ok {
				if sub, err := utils.ParseAccessToken(secret, raw); err == nil {
					id.UserID = sub
				}
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

func bearer(h string) (string, bool) {
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// IdentityFrom returns the identity stored by Identity, or the anonymous
// identity when the middleware did not run.
func IdentityFrom(c echo.Context) model.Identity {
	if id, ok := c.Get(identityKey).(model.Identity); ok {
		return id
	}
	return model.Identity{}
}
