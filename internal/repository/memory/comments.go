package memory

import (
	"context"
	"strconv"
	"strings"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/repository"
)

type Comments struct{ d *db }

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }

// parentExists checks the parent of a comment.  Callers hold the lock.
func (d *db) parentExists(f model.Family, parentID string) bool {
	switch f {
	case model.FamilyWeeks:
		_, ok := lookup(d.weeks, parentID)
		return ok
	case model.FamilyAssignments, model.FamilyResources:
		id, err := strconv.ParseUint(parentID, 10, 64)
		if err != nil {
			return false
		}
		if f == model.FamilyAssignments {
			_, ok := d.assignments[id]
			return ok
		}
		_, ok := d.resources[id]
		return ok
	}
	return false
}

// dropComments removes every comment of one parent.  Callers hold the
// write lock.
func (d *db) dropComments(f model.Family, parentID string) {
	for id, c := range d.comments[f] {
		if strings.EqualFold(c.ParentID, parentID) {
			delete(d.comments[f], id)
		}
	}
}

func (s *Comments) List(_ context.Context, family model.Family, parentID string) ([]model.Comment, error) {
	s.d.mu.RLock()
	table, ok := s.d.comments[family]
	if !ok {
		s.d.mu.RUnlock()
		return nil, repository.ErrUnknownFamily
	}
	out := make([]model.Comment, 0)
	for _, c := range table {
		if strings.EqualFold(c.ParentID, parentID) {
			out = append(out, c)
		}
	}
	s.d.mu.RUnlock()

	sortItems(out, func(a, b model.Comment) int { return compareTime(a.CreatedAt, b.CreatedAt) }, false,
		func(a, b model.Comment) int { return compareID(a.ID, b.ID) })
	return out, nil
}

func (s *Comments) Create(_ context.Context, c model.Comment) (model.Comment, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	table, ok := s.d.comments[c.Family]
	if !ok {
		return model.Comment{}, repository.ErrUnknownFamily
	}
	if !s.d.parentExists(c.Family, c.ParentID) {
		return model.Comment{}, repository.ErrNotFound
	}
	c.ID = s.d.next(string(c.Family) + "_comments")
	c.CreatedAt = s.d.now()
	table[c.ID] = c
	return c, nil
}

func (s *Comments) Delete(_ context.Context, family model.Family, id uint64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	table, ok := s.d.comments[family]
	if !ok {
		return repository.ErrUnknownFamily
	}
	if _, ok := table[id]; !ok {
		return repository.ErrNotFound
	}
	delete(table, id)
	return nil
}
