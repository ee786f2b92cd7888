package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/service"
)

// serveComments handles resource=comments on a family endpoint.  Comments
// are listed by parent key, created with {<parent key>, author, text} and
// deleted by id (or the older comment_id); they cannot be edited.
func serveComments(c echo.Context, r *request, svc *service.CommentService, f model.Family) error {
	ctx, cancel := storeCtx(c)
	defer cancel()

	switch c.Request().Method {
	case http.MethodGet:
		items, err := svc.List(ctx, f, r.param(f.ParentKey()))
		if err != nil {
			return err
		}
		return ok(c, list(items))

	case http.MethodPost:
		var in service.CreateCommentInput
		if err := r.decode(&in); err != nil {
			return err
		}
		in.ParentID = r.param(f.ParentKey())
		cm, err := svc.Create(ctx, f, in)
		if err != nil {
			return err
		}
		return created(c, cm, "Comment created")

	case http.MethodDelete:
		if err := svc.Delete(ctx, f, r.param("id", "comment_id")); err != nil {
			return err
		}
		return message(c, "Comment deleted")
	}
	return methodNotAllowed()
}
