// Package memory is an in-process implementation of the repository store
// interfaces.  It backs the handler and service tests and STORE_DRIVER=memory.
// All families share one lock so cascading deletes are atomic.
package memory

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/iliyamo/course-portal/internal/model"
	"github.com/iliyamo/course-portal/internal/repository"
)

type db struct {
	mu sync.RWMutex

	users       map[string]model.User
	assignments map[uint64]model.Assignment
	weeks       map[string]model.Week
	resources   map[uint64]model.Resource
	comments    map[model.Family]map[uint64]model.Comment

	seq map[string]uint64
	now func() time.Time
}

// New returns a Store whose families share one in-memory database.
func New() repository.Store {
	return NewWithClock(func() time.Time { return time.Now().UTC() })
}

// NewWithClock is New with a custom time source for created_at and
// updated_at stamps.
func NewWithClock(now func() time.Time) repository.Store {
	d := &db{
		users:       map[string]model.User{},
		assignments: map[uint64]model.Assignment{},
		weeks:       map[string]model.Week{},
		resources:   map[uint64]model.Resource{},
		comments: map[model.Family]map[uint64]model.Comment{
			model.FamilyAssignments: {},
			model.FamilyWeeks:       {},
			model.FamilyResources:   {},
		},
		seq: map[string]uint64{},
		now: now,
	}
	return repository.Store{
		Users:       &Users{d},
		Assignments: &Assignments{d},
		Weeks:       &Weeks{d},
		Resources:   &Resources{d},
		Comments:    &Comments{d},
	}
}

// next returns the next auto-increment value of a table.  Callers hold the
// write lock.
func (d *db) next(table string) uint64 {
	d.seq[table]++
	return d.seq[table]
}

// matches is the LIKE '%term%' of the MySQL store.
func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	term := strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// newCollator returns a case-insensitive English collator.  Collators are
// not safe for concurrent use, so each listing builds its own.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

// sortItems orders items by the primary comparison, reversed when desc, and
// breaks ties with the primary key ascending.
func sortItems[T any](items []T, primary func(a, b T) int, desc bool, tie func(a, b T) int) {
	slices.SortFunc(items, func(a, b T) int {
		c := primary(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return tie(a, b)
	})
}

func compareTime(a, b time.Time) int { return a.Compare(b) }

func compareID(a, b uint64) int { return cmp.Compare(a, b) }

func cloneList(l model.StringList) model.StringList {
	if l == nil {
		return model.StringList{}
	}
	return slices.Clone(l)
}

func unknownSort(sort string) error {
	return fmt.Errorf("%w: sort %q", repository.ErrUnknownColumn, sort)
}

// lookup returns the stored key equal to k under Unicode case folding, the
// way the case-insensitive collation of the SQL schema compares keys.
func lookup[V any](m map[string]V, k string) (string, bool) {
	if _, ok := m[k]; ok {
		return k, true
	}
	for stored := range m {
		if strings.EqualFold(stored, k) {
			return stored, true
		}
	}
	return "", false
}
