package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/iliyamo/course-portal/internal/apperr"
	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/queue"
	"github.com/iliyamo/course-portal/internal/utils"
)

const familyResources = string(model.FamilyResources)

// CreateResourceInput is the body of a resource create.
type CreateResourceInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Link        string `json:"link" validate:"required,url"`
}

// UpdateResourceInput carries the fields to change; nil means unchanged.
type UpdateResourceInput struct {
	ID          string  `json:"-"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Link        *string `json:"link"`
}

// ResourceService manages shared links.
type ResourceService struct {
	Deps
}

// NewResourceService returns a ResourceService over d.Store.Resources.
func NewResourceService(d Deps) *ResourceService {
	return &ResourceService{Deps: d.withDefaults()}
}

func (s *ResourceService) List(ctx context.Context, o ListOptions) ([]model.Resource, error) {
	list, err := s.Store.Resources.List(ctx, resourceSort.resolve(o))
	if err != nil {
		return nil, s.translate(ctx, err, "", "")
	}
	return list, nil
}

func (s *ResourceService) Get(ctx context.Context, rawID string) (model.Resource, error) {
	id, err := ParseID("id", rawID)
	if err != nil {
		return model.Resource{}, err
	}
	r, err := s.Store.Resources.Get(ctx, id)
	if err != nil {
		return model.Resource{}, s.translate(ctx, err, "Resource not found", "")
	}
	return r, nil
}

func (s *ResourceService) Create(ctx context.Context, in CreateResourceInput) (model.Resource, error) {
	in.Title = utils.Sanitize(in.Title)
	in.Description = utils.Sanitize(in.Description)
	in.Link = strings.TrimSpace(in.Link)
	if err := s.Validator.Validate(in); err != nil {
		return model.Resource{}, err
	}

	r, err := s.Store.Resources.Create(ctx, model.Resource{Title: in.Title, Description: in.Description, Link: in.Link})
	if err != nil {
		return model.Resource{}, s.translate(ctx, err, "", "")
	}
	s.publish(ctx, familyResources, queue.ActionCreated, strconv.FormatUint(r.ID, 10), "")
	return r, nil
}

// Update applies a partial update.  A new link must still be a URL.
func (s *ResourceService) Update(ctx context.Context, in UpdateResourceInput) (model.Resource, error) {
	id, err := ParseID("id", in.ID)
	if err != nil {
		return model.Resource{}, err
	}

	var p model.ResourcePatch
	if p.Title, err = cleanRequired("title", in.Title); err != nil {
		return model.Resource{}, err
	}
	p.Description = utils.SanitizePtr(in.Description)
	if in.Link != nil {
		link := strings.TrimSpace(*in.Link)
		if !s.Validator.IsURL(link) {
			return model.Resource{}, apperr.Validation("Invalid URL", apperr.FieldError{Field: "link", Message: "must be a valid URL"})
		}
		p.Link = &link
	}
	if p.Empty() {
		return model.Resource{}, apperr.Validation("No fields to update")
	}

	r, err := s.Store.Resources.Update(ctx, id, p)
	if err != nil {
		return model.Resource{}, s.translate(ctx, err, "Resource not found", "")
	}
	s.publish(ctx, familyResources, queue.ActionUpdated, in.ID, "")
	return r, nil
}

// Delete removes the resource and its comments.
func (s *ResourceService) Delete(ctx context.Context, rawID string) error {
	id, err := ParseID("id", rawID)
	if err != nil {
		return err
	}
	if err := s.Store.Resources.Delete(ctx, id); err != nil {
		return s.translate(ctx, err, "Resource not found", "")
	}
	s.publish(ctx, familyResources, queue.ActionDeleted, rawID, "")
	return nil
}
