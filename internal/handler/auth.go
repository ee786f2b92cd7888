package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-portal/internal/service"
)

// AuthHandler issues access tokens.
type AuthHandler struct {
	Users *service.UserService
}

// NewAuthHandler panics on a nil service.
func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{Users: users}
}

// Login handles POST /api/auth/login.  The returned bearer token identifies
// the caller to the password change flow.
func (h *AuthHandler) Login(c echo.Context) error {
	r, err := readRequest(c)
	if err != nil {
		return err
	}
	var in service.LoginInput
	if err := r.decode(&in); err != nil {
		return err
	}

	ctx, cancel := storeCtx(c)
	defer cancel()
	res, err := h.Users.Login(ctx, in)
	if err != nil {
		return err
	}
	return ok(c, res)
}
