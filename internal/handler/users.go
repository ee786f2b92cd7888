package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-portal/internal/middleware"
	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/service"
)

// UserHandler serves /api/users.
type UserHandler struct {
	Users *service.UserService
}

// NewUserHandler panics on a nil service.
func NewUserHandler(users *service.UserService) *UserHandler {
	if users == nil {
		panic("nil user service passed to NewUserHandler")
	}
	return &UserHandler{Users: users}
}

// Handle dispatches on the verb.  POST with action=change_password changes
// the caller's password instead of creating a user.
func (h *UserHandler) Handle(c echo.Context) error {
	if _, err := selectFamily(c, model.FamilyUsers); err != nil {
		return err
	}
	r, err := readRequest(c)
	if err != nil {
		return err
	}
	ctx, cancel := storeCtx(c)
	defer cancel()

	switch c.Request().Method {
	case http.MethodGet:
		if id := r.param("id"); id != "" {
			u, err := h.Users.Get(ctx, id)
			if err != nil {
				return err
			}
			return ok(c, u)
		}
		users, err := h.Users.List(ctx, listOptions(c))
		if err != nil {
			return err
		}
		return ok(c, list(users))

	case http.MethodPost:
		if strings.EqualFold(strings.TrimSpace(c.QueryParam("action")), "change_password") {
			var in service.ChangePasswordInput
			if err := r.decode(&in); err != nil {
				return err
			}
			if err := h.Users.ChangePassword(ctx, middleware.IdentityFrom(c), in); err != nil {
				return err
			}
			return message(c, "Password changed successfully")
		}
		var in service.CreateUserInput
		if err := r.decode(&in); err != nil {
			return err
		}
		u, err := h.Users.Create(ctx, in)
		if err != nil {
			return err
		}
		return created(c, u, "Student created")

	case http.MethodPut:
		var in service.UpdateUserInput
		if err := r.decode(&in); err != nil {
			return err
		}
		in.ID = r.param("id")
		u, err := h.Users.Update(ctx, in)
		if err != nil {
			return err
		}
		return updated(c, u, "Student updated successfully.")

	case http.MethodDelete:
		if err := h.Users.Delete(ctx, r.param("id")); err != nil {
			return err
		}
		return message(c, "Student deleted")
	}
	return methodNotAllowed()
}
