package memory

import (
	"context"
	"strings"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/repository"
)

type Weeks struct{ d *db }

func (s *Weeks) List(_ context.Context, q model.ListQuery) ([]model.Week, error) {
	coll := newCollator()
	var primary func(a, b model.Week) int
	switch q.Sort {
	case "title":
		primary = func(a, b model.Week) int { return coll.CompareString(a.Title, b.Title) }
	case "start_date":
		primary = func(a, b model.Week) int { return compareTime(a.StartDate.Time, b.StartDate.Time) }
	case "created_at":
		primary = func(a, b model.Week) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	default:
		return nil, unknownSort(q.Sort)
	}

	s.d.mu.RLock()
	out := make([]model.Week, 0, len(s.d.weeks))
	for _, w := range s.d.weeks {
		if matches(q.Search, w.Title, w.Description) {
			w.Links = cloneList(w.Links)
			out = append(out, w)
		}
	}
	s.d.mu.RUnlock()

	sortItems(out, primary, q.Desc, func(a, b model.Week) int { return strings.Compare(a.WeekID, b.WeekID) })
	return out, nil
}

func (s *Weeks) Get(_ context.Context, weekID string) (model.Week, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	key, ok := lookup(s.d.weeks, weekID)
	if !ok {
		return model.Week{}, repository.ErrNotFound
	}
	w := s.d.weeks[key]
	w.Links = cloneList(w.Links)
	return w, nil
}

func (s *Weeks) Create(_ context.Context, w model.Week) (model.Week, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := lookup(s.d.weeks, w.WeekID); ok {
		return model.Week{}, repository.ErrConflict
	}
	w.Links = cloneList(w.Links)
	w.CreatedAt = s.d.now()
	w.UpdatedAt = w.CreatedAt
	s.d.weeks[w.WeekID] = w
	w.Links = cloneList(w.Links)
	return w, nil
}

func (s *Weeks) Update(_ context.Context, weekID string, p model.WeekPatch) (model.Week, error) {
	if p.Empty() {
		return model.Week{}, repository.ErrNoFields
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	weekID, ok := lookup(s.d.weeks, weekID)
	if !ok {
		return model.Week{}, repository.ErrNotFound
	}
	w := s.d.weeks[weekID]
	if p.Title != nil {
		w.Title = *p.Title
	}
	if p.StartDate != nil {
		w.StartDate = *p.StartDate
	}
	if p.Description != nil {
		w.Description = *p.Description
	}
	if p.Links != nil {
		w.Links = cloneList(*p.Links)
	}
	w.UpdatedAt = s.d.now()
	s.d.weeks[weekID] = w
	w.Links = cloneList(w.Links)
	return w, nil
}

func (s *Weeks) Delete(_ context.Context, weekID string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	weekID, ok := lookup(s.d.weeks, weekID)
	if !ok {
		return repository.ErrNotFound
	}
	s.d.dropComments(model.FamilyWeeks, weekID)
	delete(s.d.weeks, weekID)
	return nil
}
