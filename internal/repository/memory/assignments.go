package memory

import (
	"context"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/repository"
)

type Assignments struct{ d *db }

func (s *Assignments) List(_ context.Context, q model.ListQuery) ([]model.Assignment, error) {
	coll := newCollator()
	var primary func(a, b model.Assignment) int
	switch q.Sort {
	case "title":
		primary = func(a, b model.Assignment) int { return coll.CompareString(a.Title, b.Title) }
	case "due_date":
		primary = func(a, b model.Assignment) int { return compareTime(a.DueDate.Time, b.DueDate.Time) }
	case "created_at":
		primary = func(a, b model.Assignment) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	default:
		return nil, unknownSort(q.Sort)
	}

	s.d.mu.RLock()
	out := make([]model.Assignment, 0, len(s.d.assignments))
	for _, a := range s.d.assignments {
		if matches(q.Search, a.Title, a.Description) {
			a.Files = cloneList(a.Files)
			out = append(out, a)
		}
	}
	s.d.mu.RUnlock()

	sortItems(out, primary, q.Desc, func(a, b model.Assignment) int { return compareID(a.ID, b.ID) })
	return out, nil
}

func (s *Assignments) Get(_ context.Context, id uint64) (model.Assignment, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	a, ok := s.d.assignments[id]
	if !ok {
		return model.Assignment{}, repository.ErrNotFound
	}
	a.Files = cloneList(a.Files)
	return a, nil
}

func (s *Assignments) Create(_ context.Context, a model.Assignment) (model.Assignment, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	a.ID = s.d.next("assignments")
	a.Files = cloneList(a.Files)
	a.CreatedAt = s.d.now()
	a.UpdatedAt = a.CreatedAt
	s.d.assignments[a.ID] = a
	a.Files = cloneList(a.Files)
	return a, nil
}

func (s *Assignments) Update(_ context.Context, id uint64, p model.AssignmentPatch) (model.Assignment, error) {
	if p.Empty() {
		return model.Assignment{}, repository.ErrNoFields
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	a, ok := s.d.assignments[id]
	if !ok {
		return model.Assignment{}, repository.ErrNotFound
	}
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.DueDate != nil {
		a.DueDate = *p.DueDate
	}
	if p.Files != nil {
		a.Files = cloneList(*p.Files)
	}
	a.UpdatedAt = s.d.now()
	s.d.assignments[id] = a
	a.Files = cloneList(a.Files)
	return a, nil
}

func (s *Assignments) Delete(_ context.Context, id uint64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.assignments[id]; !ok {
		return repository.ErrNotFound
	}
	s.d.dropComments(model.FamilyAssignments, formatID(id))
	delete(s.d.assignments, id)
	return nil
}
