package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/course-portal/internal/model"
)

// UserStore persists user accounts.  Get and GetByEmail return the password
// hash; List never does.
type UserStore interface {
	List(ctx context.Context, q model.ListQuery) ([]model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, id string, p model.UserPatch) (model.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

// AssignmentStore persists assignments.  Delete also removes the
// assignment's comments.
type AssignmentStore interface {
	List(ctx context.Context, q model.ListQuery) ([]model.Assignment, error)
	Get(ctx context.Context, id uint64) (model.Assignment, error)
	Create(ctx context.Context, a model.Assignment) (model.Assignment, error)
	Update(ctx context.Context, id uint64, p model.AssignmentPatch) (model.Assignment, error)
	// Delete removes the assignment together with its comments.
	Delete(ctx context.Context, id uint64) error
}

// WeekStore persists weeks keyed by week_id.
type WeekStore interface {
	List(ctx context.Context, q model.ListQuery) ([]model.Week, error)
	Get(ctx context.Context, weekID string) (model.Week, error)
	Create(ctx context.Context, w model.Week) (model.Week, error)
	Update(ctx context.Context, weekID string, p model.WeekPatch) (model.Week, error)
	// Delete removes the week together with its comments.
	Delete(ctx context.Context, weekID string) error
}

// ResourceStore persists resources.
type ResourceStore interface {
	List(ctx context.Context, q model.ListQuery) ([]model.Resource, error)
	Get(ctx context.Context, id uint64) (model.Resource, error)
	Create(ctx context.Context, r model.Resource) (model.Resource, error)
	Update(ctx context.Context, id uint64, p model.ResourcePatch) (model.Resource, error)
	// Delete removes the resource together with its comments.
	Delete(ctx context.Context, id uint64) error
}

// CommentStore serves the three comment tables.  The family selects the
// table; parent ids are passed as strings for every family.
type CommentStore interface {
	List(ctx context.Context, family model.Family, parentID string) ([]model.Comment, error)
	// Create returns ErrNotFound when the parent does not exist.
	Create(ctx context.Context, c model.Comment) (model.Comment, error)
	Delete(ctx context.Context, family model.Family, id uint64) error
}

// Store groups the per-family stores handed to the services.
type Store struct {
	Users       UserStore
	Assignments AssignmentStore
	Weeks       WeekStore
	Resources   ResourceStore
	Comments    CommentStore
}

// NewMySQLStore wires every MySQL repository over one connection pool.
func NewMySQLStore(db *sql.DB) Store {
	return Store{
		Users:       NewUserRepo(db),
		Assignments: NewAssignmentRepo(db),
		Weeks:       NewWeekRepo(db),
		Resources:   NewResourceRepo(db),
		Comments:    NewCommentRepo(db),
	}
}
