package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/course-portal/internal/database"
	"github.com/iliyamo/course-portal/internal/model"
)

var (
	weekSearchColumns    = []string{"title", "description"}
	weekSortColumns      = []string{"title", "start_date", "created_at"}
	weekUpdatableColumns = []string{"title", "start_date", "description", "links"}
)

const weekColumns = "week_id, title, start_date, description, links, created_at, updated_at"

// WeekRepo is the MySQL backed WeekStore.  week_id is supplied by the
// caller and is the primary key.
type WeekRepo struct {
	db *sql.DB
}

func NewWeekRepo(db *sql.DB) *WeekRepo { return &WeekRepo{db: db} }

func scanWeek(s scanner) (model.Week, error) {
	var w model.Week
	var desc sql.NullString
	err := s.Scan(&w.WeekID, &w.Title, &w.StartDate, &desc, &w.Links, &w.CreatedAt, &w.UpdatedAt)
	w.Description = desc.String
	return w, err
}

func getWeek(ctx context.Context, db database.DBTX, weekID string) (model.Week, error) {
	w, err := scanWeek(db.QueryRowContext(ctx,
		"SELECT "+weekColumns+" FROM weeks WHERE week_id = ?", weekID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Week{}, ErrNotFound
	}
	return w, err
}

func (r *WeekRepo) List(ctx context.Context, q model.ListQuery) ([]model.Week, error) {
	where, args := searchWhere(weekSearchColumns, q.Search)
	order, err := orderBy(weekSortColumns, q.Sort, q.Desc, "week_id")
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+weekColumns+" FROM weeks"+where+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Week, 0)
	for rows.Next() {
		w, err := scanWeek(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *WeekRepo) Get(ctx context.Context, weekID string) (model.Week, error) {
	return getWeek(ctx, r.db, weekID)
}

// Create inserts w unless its week_id is already taken.
func (r *WeekRepo) Create(ctx context.Context, w model.Week) (model.Week, error) {
	var out model.Week
	err := database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM weeks WHERE week_id = ?", w.WeekID).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO weeks (week_id, title, start_date, description, links) VALUES (?, ?, ?, ?, ?)",
			w.WeekID, w.Title, w.StartDate, w.Description, w.Links); err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return err
		}
		var err error
		out, err = getWeek(ctx, tx, w.WeekID)
		return err
	})
	return out, err
}

func (r *WeekRepo) Update(ctx context.Context, weekID string, p model.WeekPatch) (model.Week, error) {
	var sets []Set
	if p.Title != nil {
		sets = append(sets, Set{Column: "title", Value: *p.Title})
	}
	if p.StartDate != nil {
		sets = append(sets, Set{Column: "start_date", Value: *p.StartDate})
	}
	if p.Description != nil {
		sets = append(sets, Set{Column: "description", Value: *p.Description})
	}
	if p.Links != nil {
		sets = append(sets, Set{Column: "links", Value: *p.Links})
	}
	q, args, err := buildUpdate("weeks", "week_id", weekUpdatableColumns, sets, true)
	if err != nil {
		return model.Week{}, err
	}

	var out model.Week
	err = database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		if err := lockRow(ctx, tx, "weeks", "week_id", weekID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, append(args, weekID)...); err != nil {
			return err
		}
		var err error
		out, err = getWeek(ctx, tx, weekID)
		return err
	})
	return out, err
}

// Delete removes the week and its comments in one transaction.
func (r *WeekRepo) Delete(ctx context.Context, weekID string) error {
	return deleteWithComments(ctx, r.db, "weeks", "week_id", "week_comments", "week_id", weekID)
}
