package service

import (
	"context"
	"strconv"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/queue"
	"github.com/iliyamo/course-portal/internal/utils"
)

// CreateCommentInput is the decoded body of a comment create.  ParentID is
// read from the family's parent key (assignment_id, week_id or resource_id).
type CreateCommentInput struct {
	ParentID string `validate:"required"`
	Author   string `json:"author" validate:"required"`
	Text     string `json:"text" validate:"required"`
}

// CommentService serves the comment threads of assignments, weeks and
// resources.  Comments are append-only; they are never edited.
type CommentService struct {
	Deps
}

// NewCommentService returns a CommentService over d.Store.Comments.
func NewCommentService(d Deps) *CommentService {
	return &CommentService{Deps: d.withDefaults()}
}

// parentID validates a parent reference: weeks use free-form keys, the
// other families numeric ids.
func parentID(f model.Family, raw string) (string, error) {
	key := f.ParentKey()
	raw = utils.Sanitize(raw)
	if raw == "" {
		return "", missingField(key)
	}
	if f == model.FamilyWeeks {
		return raw, nil
	}
	id, err := ParseID(key, raw)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(id, 10), nil
}

func eventFamily(f model.Family) string { return string(f) + ".comments" }

// List returns the comments of one parent, oldest first.
func (s *CommentService) List(ctx context.Context, f model.Family, rawParent string) ([]model.Comment, error) {
	pid, err := parentID(f, rawParent)
	if err != nil {
		return nil, err
	}
	list, err := s.Store.Comments.List(ctx, f, pid)
	if err != nil {
		return nil, s.translate(ctx, err, "", "")
	}
	return list, nil
}

// Create adds a comment to an existing parent.
func (s *CommentService) Create(ctx context.Context, f model.Family, in CreateCommentInput) (model.Comment, error) {
	in.Author = utils.Sanitize(in.Author)
	in.Text = utils.Sanitize(in.Text)
	pid, err := parentID(f, in.ParentID)
	if err != nil {
		return model.Comment{}, err
	}
	in.ParentID = pid
	if err := s.Validator.Validate(in); err != nil {
		return model.Comment{}, err
	}

	c, err := s.Store.Comments.Create(ctx, model.Comment{Family: f, ParentID: pid, Author: in.Author, Text: in.Text})
	if err != nil {
		return model.Comment{}, s.translate(ctx, err, parentNotFound(f), "")
	}
	s.publish(ctx, eventFamily(f), queue.ActionCreated, strconv.FormatUint(c.ID, 10), pid)
	return c, nil
}

func (s *CommentService) Delete(ctx context.Context, f model.Family, rawID string) error {
	id, err := ParseID("id", utils.Sanitize(rawID))
	if err != nil {
		return err
	}
	if err := s.Store.Comments.Delete(ctx, f, id); err != nil {
		return s.translate(ctx, err, "Comment not found", "")
	}
	s.publish(ctx, eventFamily(f), queue.ActionDeleted, strconv.FormatUint(id, 10), "")
	return nil
}

func parentNotFound(f model.Family) string {
	switch f {
	case model.FamilyAssignments:
		return "Assignment not found"
	case model.FamilyWeeks:
		return "Week not found"
	case model.FamilyResources:
		return "Resource not found"
	}
	return "Not found"
}
