package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-portal/internal/apperr"
	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/service"
)

// storeTimeout bounds every service call made by a handler.
const storeTimeout = 5 * time.Second

func storeCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// idValue accepts identifiers sent either as JSON strings or numbers.
type idValue string

func (v *idValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = idValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("identifier must be a string or a number")
	}
	*v = idValue(n.String())
	return nil
}

// bodyIDs are the identifier keys a body may carry.
type bodyIDs struct {
	ID           idValue `json:"id"`
	WeekID       idValue `json:"week_id"`
	CommentID    idValue `json:"comment_id"`
	AssignmentID idValue `json:"assignment_id"`
	ResourceID   idValue `json:"resource_id"`
}

func (b bodyIDs) key(name string) string {
	switch name {
	case "id":
		return string(b.ID)
	case "week_id":
		return string(b.WeekID)
	case "comment_id":
		return string(b.CommentID)
	case "assignment_id":
		return string(b.AssignmentID)
	case "resource_id":
		return string(b.ResourceID)
	}
	return ""
}

// request is a read-once view of the JSON body.  The body is decoded twice:
// once for identifiers and once into the operation's input.
type request struct {
	c   echo.Context
	raw []byte
	ids bodyIDs
}

var errInvalidJSON = apperr.Validation("Invalid JSON body")

// readRequest reads the body of a write request once and decodes the
// identifiers it carries.
func readRequest(c echo.Context) (*request, error) {
	r := &request{c: c}
	// reads are addressed by the query string alone so the cached response
	// of a URL never depends on a body
	switch c.Request().Method {
	case http.MethodGet, http.MethodHead:
		return r, nil
	}
	if c.Request().Body == nil {
		return r, nil
	}
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, he
		}
		return nil, apperr.Validation("Unable to read request body")
	}
	r.raw = bytes.TrimSpace(raw)
	if len(r.raw) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(r.raw, &r.ids); err != nil {
		return nil, errInvalidJSON
	}
	return r, nil
}

// decode fills dst from the body.  An empty body leaves dst untouched.
func (r *request) decode(dst any) error {
	if len(r.raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.raw, dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

// param returns the first non-empty value among the query parameters and
// body keys named by keys, query first.
func (r *request) param(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.c.QueryParam(k)); v != "" {
			return v
		}
		if v := strings.TrimSpace(r.ids.key(k)); v != "" {
			return v
		}
	}
	return ""
}

func listOptions(c echo.Context) service.ListOptions {
	return service.ListOptions{
		Search: c.QueryParam("search"),
		Sort:   c.QueryParam("sort"),
		Order:  c.QueryParam("order"),
	}
}

// selectFamily resolves the resource query parameter against the families
// an endpoint serves; the first one is the default.
func selectFamily(c echo.Context, allowed ...model.Family) (model.Family, error) {
	raw := strings.ToLower(strings.TrimSpace(c.QueryParam("resource")))
	if raw == "" {
		return allowed[0], nil
	}
	for _, f := range allowed {
		if raw == string(f) {
			return f, nil
		}
	}
	return "", apperr.Validation("Invalid resource")
}

func methodNotAllowed() error { return apperr.Method("Method not allowed") }
