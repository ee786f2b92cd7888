package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/service"
)

// ResourceHandler serves /api/resources.
type ResourceHandler struct {
	Resources *service.ResourceService
	Comments  *service.CommentService
}

// NewResourceHandler panics on a nil service.
func NewResourceHandler(rs *service.ResourceService, cm *service.CommentService) *ResourceHandler {
	if rs == nil || cm == nil {
		panic("nil service passed to NewResourceHandler")
	}
	return &ResourceHandler{Resources: rs, Comments: cm}
}

// resourceFamily also honours the older action=comments|comment|delete_comment
// form of selecting the comment thread.
func resourceFamily(c echo.Context) (model.Family, error) {
	switch strings.ToLower(strings.TrimSpace(c.QueryParam("action"))) {
	case "comments", "comment", "delete_comment":
		return model.FamilyComments, nil
	}
	return selectFamily(c, model.FamilyResources, model.FamilyComments)
}

// Handle serves the resource family.  The action query parameter is kept
// for older clients that address comments through it.
func (h *ResourceHandler) Handle(c echo.Context) error {
	f, err := resourceFamily(c)
	if err != nil {
		return err
	}
	r, err := readRequest(c)
	if err != nil {
		return err
	}
	if f == model.FamilyComments {
		return serveComments(c, r, h.Comments, model.FamilyResources)
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	switch c.Request().Method {
	case http.MethodGet:
		if id := r.param("id"); id != "" {
			res, err := h.Resources.Get(ctx, id)
			if err != nil {
				return err
			}
			return ok(c, res)
		}
		items, err := h.Resources.List(ctx, listOptions(c))
		if err != nil {
			return err
		}
		return ok(c, list(items))

	case http.MethodPost:
		var in service.CreateResourceInput
		if err := r.decode(&in); err != nil {
			return err
		}
		res, err := h.Resources.Create(ctx, in)
		if err != nil {
			return err
		}
		return created(c, res, "Resource created")

	case http.MethodPut:
		var in service.UpdateResourceInput
		if err := r.decode(&in); err != nil {
			return err
		}
		in.ID = r.param("id")
		res, err := h.Resources.Update(ctx, in)
		if err != nil {
			return err
		}
		return updated(c, res, "Resource updated")

	case http.MethodDelete:
		if err := h.Resources.Delete(ctx, r.param("id")); err != nil {
			return err
		}
		return message(c, "Resource deleted")
	}
	return methodNotAllowed()
}
