package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/service"
)

// WeekHandler serves /api/weekly.  Weeks are keyed by week_id; id is
// accepted as an alias.
type WeekHandler struct {
	Weeks    *service.WeekService
	Comments *service.CommentService
}

// NewWeekHandler panics on a nil service.
func NewWeekHandler(w *service.WeekService, cm *service.CommentService) *WeekHandler {
	if w == nil || cm == nil {
		panic("nil service passed to NewWeekHandler")
	}
	return &WeekHandler{Weeks: w, Comments: cm}
}

// Handle serves GET, POST, PUT and DELETE for weeks and, with
// resource=comments, their comments.
func (h *WeekHandler) Handle(c echo.Context) error {
	f, err := selectFamily(c, model.FamilyWeeks, model.FamilyComments)
	if err != nil {
		return err
	}
	r, err := readRequest(c)
	if err != nil {
		return err
	}
	if f == model.FamilyComments {
		return serveComments(c, r, h.Comments, model.FamilyWeeks)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	switch c.Request().Method {
	case http.MethodGet:
		if id := r.param("week_id", "id"); id != "" {
			w, err := h.Weeks.Get(ctx, id)
			if err != nil {
				return err
			}
			return ok(c, w)
		}
		items, err := h.Weeks.List(ctx, listOptions(c))
		if err != nil {
			return err
		}
		return ok(c, list(items))

	case http.MethodPost:
		var in service.CreateWeekInput
		if err := r.decode(&in); err != nil {
			return err
		}
		w, err := h.Weeks.Create(ctx, in)
		if err != nil {
			return err
		}
		return created(c, w, "Week created")

	case http.MethodPut:
		var in service.UpdateWeekInput
		if err := r.decode(&in); err != nil {
			return err
		}
		in.WeekID = r.param("week_id", "id")
		w, err := h.Weeks.Update(ctx, in)
		if err != nil {
			return err
		}
		return updated(c, w, "Week updated")

	case http.MethodDelete:
		if err := h.Weeks.Delete(ctx, r.param("week_id", "id")); err != nil {
			return err
		}
		return message(c, "Week deleted")
	}
	return methodNotAllowed()
}
