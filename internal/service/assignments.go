package service

import (
	"context"
	"strconv"

	"github.com/iliyamo/course-portal/internal/apperr"
	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/queue"
	"github.com/iliyamo/course-portal/internal/utils"
)

const familyAssignments = string(model.FamilyAssignments)

// CreateAssignmentInput is the body of an assignment create.  DueDate is
// YYYY-MM-DD and Files holds URLs.
type CreateAssignmentInput struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	DueDate     string   `json:"due_date" validate:"required,ymd"`
	Files       []string `json:"files" validate:"dive,url"`
}

// UpdateAssignmentInput carries the fields to change.  Nil fields are left
// alone; ID comes from the query or body id key.
type UpdateAssignmentInput struct {
	ID          string    `json:"-"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	DueDate     *string   `json:"due_date"`
	Files       *[]string `json:"files"`
}

// AssignmentService manages assignments and publishes a change event after
// each successful mutation.
type AssignmentService struct {
	Deps
}

// NewAssignmentService returns an AssignmentService over d.Store.Assignments.
func NewAssignmentService(d Deps) *AssignmentService {
	return &AssignmentService{Deps: d.withDefaults()}
}

// ParseID parses a positive numeric identifier.
func ParseID(name, raw string) (uint64, error) {
	if raw == "" {
		return 0, missingField(name)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("Invalid "+name, apperr.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return id, nil
}

// validateURLs trims list entries, drops blanks and checks each one.
func (d Deps) validateURLs(field string, in []string) (model.StringList, error) {
	out := utils.CleanList(in)
	for i, u := range out {
		if !d.Validator.IsURL(u) {
			name := field + "[" + strconv.Itoa(i) + "]"
			return nil, apperr.Validation(name+" must be a valid URL", apperr.FieldError{Field: name, Message: "must be a valid URL"})
		}
	}
	return out, nil
}

// List returns the assignments matching o, oldest first unless o.Sort says
// otherwise.
func (s *AssignmentService) List(ctx context.Context, o ListOptions) ([]model.Assignment, error) {
	list, err := s.Store.Assignments.List(ctx, assignmentSort.resolve(o))
	if err != nil {
		return nil, s.translate(ctx, err, "", "")
	}
	return list, nil
}

func (s *AssignmentService) Get(ctx context.Context, rawID string) (model.Assignment, error) {
	id, err := ParseID("id", rawID)
	if err != nil {
		return model.Assignment{}, err
	}
	a, err := s.Store.Assignments.Get(ctx, id)
	if err != nil {
		return model.Assignment{}, s.translate(ctx, err, "Assignment not found", "")
	}
	return a, nil
}

// Create validates in and stores a new assignment.
func (s *AssignmentService) Create(ctx context.Context, in CreateAssignmentInput) (model.Assignment, error) {
	in.Title = utils.Sanitize(in.Title)
	in.Description = utils.Sanitize(in.Description)
	in.DueDate = utils.Sanitize(in.DueDate)
	in.Files = utils.CleanList(in.Files)
	if err := s.Validator.Validate(in); err != nil {
		return model.Assignment{}, err
	}
	due, err := parseDateField("due_date", in.DueDate)
	if err != nil {
		return model.Assignment{}, err
	}

	a, err := s.Store.Assignments.Create(ctx, model.Assignment{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     due,
		Files:       in.Files,
	})
	if err != nil {
		return model.Assignment{}, s.translate(ctx, err, "", "")
	}
	s.publish(ctx, familyAssignments, queue.ActionCreated, strconv.FormatUint(a.ID, 10), "")
	return a, nil
}

// Update applies a partial update.  An update with no fields is rejected.
func (s *AssignmentService) Update(ctx context.Context, in UpdateAssignmentInput) (model.Assignment, error) {
	id, err := ParseID("id", in.ID)
	if err != nil {
		return model.Assignment{}, err
	}

	var p model.AssignmentPatch
	if p.Title, err = cleanRequired("title", in.Title); err != nil {
		return model.Assignment{}, err
	}
	if p.Description, err = cleanRequired("description", in.Description); err != nil {
		return model.Assignment{}, err
	}
	if in.DueDate != nil {
		due, err := parseDateField("due_date", utils.Sanitize(*in.DueDate))
		if err != nil {
			return model.Assignment{}, err
		}
		p.DueDate = &due
	}
	if in.Files != nil {
		files, err := s.validateURLs("files", *in.Files)
		if err != nil {
			return model.Assignment{}, err
		}
		p.Files = &files
	}
	if p.Empty() {
		return model.Assignment{}, apperr.Validation("No fields to update")
	}

	a, err := s.Store.Assignments.Update(ctx, id, p)
	if err != nil {
		return model.Assignment{}, s.translate(ctx, err, "Assignment not found", "")
	}
	s.publish(ctx, familyAssignments, queue.ActionUpdated, in.ID, "")
	return a, nil
}

// Delete removes the assignment and its comments.
func (s *AssignmentService) Delete(ctx context.Context, rawID string) error {
	id, err := ParseID("id", rawID)
	if err != nil {
		return err
	}
	if err := s.Store.Assignments.Delete(ctx, id); err != nil {
		return s.translate(ctx, err, "Assignment not found", "")
	}
	s.publish(ctx, familyAssignments, queue.ActionDeleted, rawID, "")
	return nil
}
