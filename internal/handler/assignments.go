package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/service"
)

// AssignmentHandler serves /api/assignments and its comment threads.
type AssignmentHandler struct {
	Assignments *service.AssignmentService
	Comments    *service.CommentService
}

func NewAssignmentHandler(a *service.AssignmentService, cm *service.CommentService) *AssignmentHandler {
	if a == nil || cm == nil {
		panic("nil service passed to NewAssignmentHandler")
	}
	return &AssignmentHandler{Assignments: a, Comments: cm}
}

// Handle dispatches on the verb.  resource=comments switches to the
// assignment comment threads.
func (h *AssignmentHandler) Handle(c echo.Context) error {
	f, err := selectFamily(c, model.FamilyAssignments, model.FamilyComments)
	if err != nil {
		return err
	}
	r, err := readRequest(c)
	if err != nil {
		return err
	}
	if f == model.FamilyComments {
		return serveComments(c, r, h.Comments, model.FamilyAssignments)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	switch c.Request().Method {
	case http.MethodGet:
		if id := r.param("id"); id != "" {
			a, err := h.Assignments.Get(ctx, id)
			if err != nil {
				return err
			}
			return ok(c, a)
		}
		items, err := h.Assignments.List(ctx, listOptions(c))
		if err != nil {
			return err
		}
		return ok(c, list(items))

	case http.MethodPost:
		var in service.CreateAssignmentInput
		if err := r.decode(&in); err != nil {
			return err
		}
		a, err := h.Assignments.Create(ctx, in)
		if err != nil {
			return err
		}
		return created(c, a, "Assignment created")

	case http.MethodPut:
		var in service.UpdateAssignmentInput
		if err := r.decode(&in); err != nil {
			return err
		}
		in.ID = r.param("id")
		a, err := h.Assignments.Update(ctx, in)
		if err != nil {
			return err
		}
		return updated(c, a, "Assignment updated")

	case http.MethodDelete:
		if err := h.Assignments.Delete(ctx, r.param("id")); err != nil {
			return err
		}
		return message(c, "Assignment deleted")
	}
	return methodNotAllowed()
}
