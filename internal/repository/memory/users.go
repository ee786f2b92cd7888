package memory

import (
	"context"
	"strings"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/repository"
)

type Users struct{ d *db }

func (s *Users) List(_ context.Context, q model.ListQuery) ([]model.User, error) {
	coll := newCollator()
	var primary func(a, b model.User) int
	switch q.Sort {
	case "name":
		primary = func(a, b model.User) int { return coll.CompareString(a.Name, b.Name) }
	case "id":
		primary = func(a, b model.User) int { return coll.CompareString(a.ID, b.ID) }
	case "email":
		primary = func(a, b model.User) int { return coll.CompareString(a.Email, b.Email) }
	case "created_at":
		primary = func(a, b model.User) int { return compareTime(a.CreatedAt, b.CreatedAt) }
	default:
		return nil, unknownSort(q.Sort)
	}

	s.d.mu.RLock()
	out := make([]model.User, 0, len(s.d.users))
	for _, u := range s.d.users {
		if matches(q.Search, u.Name, u.ID, u.Email) {
			u.PasswordHash = ""
			out = append(out, u)
		}
	}
	s.d.mu.RUnlock()

	sortItems(out, primary, q.Desc, func(a, b model.User) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *Users) Get(_ context.Context, id string) (model.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	key, ok := lookup(s.d.users, id)
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return s.d.users[key], nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (model.User, error) {
	s.d.mu.RLock()
	defer s.d.mu.RUnlock()
	for _, u := range s.d.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

// emailTaken reports whether another user than self owns email, ignoring
// case.  Callers hold the lock.
func (s *Users) emailTaken(email, self string) bool {
	for id, u := range s.d.users {
		if id != self && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *Users) Create(_ context.Context, u model.User) (model.User, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := lookup(s.d.users, u.ID); ok || s.emailTaken(u.Email, "") {
		return model.User{}, repository.ErrConflict
	}
	u.CreatedAt = s.d.now()
	s.d.users[u.ID] = u
	return u, nil
}

func (s *Users) Update(_ context.Context, id string, p model.UserPatch) (model.User, error) {
	if p.Empty() {
		return model.User{}, repository.ErrNoFields
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	id, ok := lookup(s.d.users, id)
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	u := s.d.users[id]
	if p.Email != nil && s.emailTaken(*p.Email, id) {
		return model.User{}, repository.ErrConflict
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	s.d.users[id] = u
	return u, nil
}

func (s *Users) UpdatePassword(_ context.Context, id, hash string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	id, ok := lookup(s.d.users, id)
	if !ok {
		return repository.ErrNotFound
	}
	u := s.d.users[id]
	u.PasswordHash = hash
	s.d.users[id] = u
	return nil
}

func (s *Users) Delete(_ context.Context, id string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	id, ok := lookup(s.d.users, id)
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.d.users, id)
	return nil
}
