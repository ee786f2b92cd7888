// Package service holds the portal's business rules: input sanitization and
// validation, list option resolution, store error translation and change
// event publishing.  Handlers only decode requests and encode responses.
package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/iliyamo/course-portal/internal/apperr"
	"github.com/iliyamo/course-portal/internal/logging"
	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/queue"
	"github.com/iliyamo/course-portal/internal/repository"
	"github.com/iliyamo/course-portal/internal/utils"
)

// Deps are shared by every service.
type Deps struct {
	Store     repository.Store
	Events    Publisher
	Log       logging.Logger
	Validator *utils.Validator
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Events == nil {
		d.Events = NopPublisher{}
	}
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	if d.Validator == nil {
		d.Validator = utils.DefaultValidator()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// publish emits a change event.  A failed publish never fails the
// mutation that triggered it.
func (d Deps) publish(ctx context.Context, family, action, id, parentID string) {
	ev := queue.ChangeEvent{Family: family, Action: action, ID: id, ParentID: parentID, At: d.Now()}
	if err := d.Events.Publish(ctx, ev); err != nil {
		d.Log.Warn(ctx, "publish change event failed", "family", family, "action", action, "id", id, "error", err)
	}
}

// ListOptions are the raw list parameters of a request.
type ListOptions struct {
	Search string
	Sort   string
	Order  string
}

// sortRule is a family's sort allow-list and default ordering.
type sortRule struct {
	allowed     []string
	defaultSort string
	defaultDesc bool
}

var (
	userSort       = sortRule{allowed: []string{"name", "id", "email", "created_at"}, defaultSort: "name"}
	assignmentSort = sortRule{allowed: []string{"title", "due_date", "created_at"}, defaultSort: "created_at"}
	weekSort       = sortRule{allowed: []string{"title", "start_date", "created_at"}, defaultSort: "start_date"}
	resourceSort   = sortRule{allowed: []string{"title", "created_at"}, defaultSort: "created_at", defaultDesc: true}
)

// resolve turns raw options into a store query.  An absent or unknown sort
// falls back to the family default; order is honoured when it is asc or
// desc and otherwise defaults to asc for an explicit sort.
func (s sortRule) resolve(o ListOptions) model.ListQuery {
	q := model.ListQuery{Search: utils.Sanitize(o.Search)}

	order := strings.ToLower(strings.TrimSpace(o.Order))
	sort := strings.TrimSpace(o.Sort)
	if slices.Contains(s.allowed, sort) {
		q.Sort = sort
		q.Desc = order == "desc"
		return q
	}
	q.Sort = s.defaultSort
	switch order {
	case "asc":
		q.Desc = false
	case "desc":
		q.Desc = true
	default:
		q.Desc = s.defaultDesc
	}
	return q
}

// translate maps store sentinels onto client errors.  Anything unexpected
// becomes a generic store error and is logged with its cause.
func (d Deps) translate(ctx context.Context, err error, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, repository.ErrConflict):
		return apperr.Conflict(conflict)
	case errors.Is(err, repository.ErrNoFields):
		return apperr.Validation("No fields to update")
	case errors.Is(err, utils.ErrPasswordTooLong):
		return apperr.Validation("Password must be at most 72 bytes long")
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	d.Log.Error(ctx, "store failure", "error", err)
	return apperr.Store(err)
}

// requireID rejects an empty identifier.
func requireID(name, v string) error {
	if v == "" {
		return missingField(name)
	}
	return nil
}

func missingField(name string) *apperr.Error {
	return apperr.Validation("missing required field: "+name, apperr.FieldError{Field: name, Message: "is required"})
}

// cleanRequired sanitizes a provided update field and rejects it when it
// ends up empty.
func cleanRequired(name string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s := utils.Sanitize(*v)
	if s == "" {
		return nil, apperr.Validation(name+" cannot be empty", apperr.FieldError{Field: name, Message: "cannot be empty"})
	}
	return &s, nil
}

func parseDateField(name, v string) (model.Date, error) {
	d, err := model.ParseDate(v)
	if err != nil {
		return model.Date{}, apperr.Validation(name+" must be a date in YYYY-MM-DD format",
			apperr.FieldError{Field: name, Message: "must be a date in YYYY-MM-DD format"})
	}
	return d, nil
}
