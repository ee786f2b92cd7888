package service

import (
	"context"

	"github.com/iliyamo/course-portal/internal/apperr"
	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/queue"
	"github.com/iliyamo/course-portal/internal/utils"
)

const familyWeeks = string(model.FamilyWeeks)

// CreateWeekInput is the body of a week create.  WeekID is chosen by the
// client and must be unique ignoring case.
type CreateWeekInput struct {
	WeekID      string   `json:"week_id" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	StartDate   string   `json:"start_date" validate:"required,ymd"`
	Description string   `json:"description"`
	Links       []string `json:"links"`
}

// UpdateWeekInput carries the fields to change.  WeekID selects the week
// and is never itself updated.
type UpdateWeekInput struct {
	WeekID      string    `json:"-"`
	Title       *string   `json:"title"`
	StartDate   *string   `json:"start_date"`
	Description *string   `json:"description"`
	Links       *[]string `json:"links"`
}

// WeekService manages the weekly breakdown.  Links are free-form strings
// and are trimmed but not checked as URLs.
type WeekService struct {
	Deps
}

// NewWeekService returns a WeekService over d.Store.Weeks.
func NewWeekService(d Deps) *WeekService {
	return &WeekService{Deps: d.withDefaults()}
}

func (s *WeekService) List(ctx context.Context, o ListOptions) ([]model.Week, error) {
	list, err := s.Store.Weeks.List(ctx, weekSort.resolve(o))
	if err != nil {
		return nil, s.translate(ctx, err, "", "")
	}
	return list, nil
}

func (s *WeekService) Get(ctx context.Context, weekID string) (model.Week, error) {
	weekID = utils.Sanitize(weekID)
	if err := requireID("week_id", weekID); err != nil {
		return model.Week{}, err
	}
	w, err := s.Store.Weeks.Get(ctx, weekID)
	if err != nil {
		return model.Week{}, s.translate(ctx, err, "Week not found", "")
	}
	return w, nil
}

// Create stores a new week.
func (s *WeekService) Create(ctx context.Context, in CreateWeekInput) (model.Week, error) {
	in.WeekID = utils.Sanitize(in.WeekID)
	in.Title = utils.Sanitize(in.Title)
	in.StartDate = utils.Sanitize(in.StartDate)
	in.Description = utils.Sanitize(in.Description)
	if err := s.Validator.Validate(in); err != nil {
		return model.Week{}, err
	}
	start, err := parseDateField("start_date", in.StartDate)
	if err != nil {
		return model.Week{}, err
	}

	w, err := s.Store.Weeks.Create(ctx, model.Week{
		WeekID:      in.WeekID,
		Title:       in.Title,
		StartDate:   start,
		Description: in.Description,
		Links:       utils.CleanList(in.Links),
	})
	if err != nil {
		return model.Week{}, s.translate(ctx, err, "", "Week with this week_id already exists")
	}
	s.publish(ctx, familyWeeks, queue.ActionCreated, w.WeekID, "")
	return w, nil
}

func (s *WeekService) Update(ctx context.Context, in UpdateWeekInput) (model.Week, error) {
	weekID := utils.Sanitize(in.WeekID)
	if err := requireID("week_id", weekID); err != nil {
		return model.Week{}, err
	}

	var p model.WeekPatch
	var err error
	if p.Title, err = cleanRequired("title", in.Title); err != nil {
		return model.Week{}, err
	}
	if in.StartDate != nil {
		start, err := parseDateField("start_date", utils.Sanitize(*in.StartDate))
		if err != nil {
			return model.Week{}, err
		}
		p.StartDate = &start
	}
	// description is optional, so an empty value clears it
	p.Description = utils.SanitizePtr(in.Description)
	if in.Links != nil {
		links := model.StringList(utils.CleanList(*in.Links))
		p.Links = &links
	}
	if p.Empty() {
		return model.Week{}, apperr.Validation("No fields to update")
	}

	w, err := s.Store.Weeks.Update(ctx, weekID, p)
	if err != nil {
		return model.Week{}, s.translate(ctx, err, "Week not found", "")
	}
	s.publish(ctx, familyWeeks, queue.ActionUpdated, weekID, "")
	return w, nil
}

// Delete removes the week and its comments.
func (s *WeekService) Delete(ctx context.Context, weekID string) error {
	weekID = utils.Sanitize(weekID)
	if err := requireID("week_id", weekID); err != nil {
		return err
	}
	if err := s.Store.Weeks.Delete(ctx, weekID); err != nil {
		return s.translate(ctx, err, "Week not found", "")
	}
	s.publish(ctx, familyWeeks, queue.ActionDeleted, weekID, "")
	return nil
}
