package memory

import (
	"context"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/repository"
)

type Resources struct{ d *db }

func (s *Resources) List(_ context.Context, q model.ListQuery) ([]model.Resource, error) {
	coll := newCollator()
	var primary func(a, b model.Resource) int
	switch q.Sort {
	case "title":
		primary = func(a, b model.Resource) int { return coll.CompareString(a.Title, b.Title) }
	case "created_at":
		primary = func(a, b model.Resource) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	default:
		return nil, unknownSort(q.Sort)
	}

	s.d.mu.RLock()
	out := make([]model.Resource, 0, len(s.d.resources))
	for _, r := range s.d.resources {
		if matches(q.Search, r.Title, r.Description) {
			out = append(out, r)
		}
	}
	s.d.mu.RUnlock()

	sortItems(out, primary, q.Desc, func(a, b model.Resource) int { return compareID(a.ID, b.ID) })
	return out, nil
}

func (s *Resources) Get(_ context.Context, id uint64) (model.Resource, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	r, ok := s.d.resources[id]
	if !ok {
		return model.Resource{}, repository.ErrNotFound
	}
	return r, nil
}

func (s *Resources) Create(_ context.Context, r model.Resource) (model.Resource, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	r.ID = s.d.next("resources")
	r.CreatedAt = s.d.now()
	s.d.resources[r.ID] = r
	return r, nil
}

func (s *Resources) Update(_ context.Context, id uint64, p model.ResourcePatch) (model.Resource, error) {
	if p.Empty() {
		return model.Resource{}, repository.ErrNoFields
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	r, ok := s.d.resources[id]
	if !ok {
		return model.Resource{}, repository.ErrNotFound
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Link != nil {
		r.Link = *p.Link
	}
	s.d.resources[id] = r
	return r, nil
}

func (s *Resources) Delete(_ context.Context, id uint64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.resources[id]; !ok {
		return repository.ErrNotFound
	}
	s.d.dropComments(model.FamilyResources, formatID(id))
	delete(s.d.resources, id)
	return nil
}
