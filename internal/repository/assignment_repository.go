package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/course-portal/internal/database"
	"github.com/iliyamo/course-portal/internal/model"
)

var (
	assignmentSearchColumns    = []string{"title", "description"}
	assignmentSortColumns      = []string{"title", "due_date", "created_at"}
	assignmentUpdatableColumns = []string{"title", "description", "due_date", "files"}
)

const assignmentColumns = "id, title, description, due_date, files, created_at, updated_at"

// AssignmentRepo is the MySQL backed AssignmentStore.  Files are kept as a
// JSON array in assignments.files.
type AssignmentRepo struct {
	db *sql.DB
}

func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{db: db} }

func scanAssignment(s scanner) (model.Assignment, error) {
	var a model.Assignment
	err := s.Scan(&a.ID, &a.Title, &a.Description, &a.DueDate, &a.Files, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func getAssignment(ctx context.Context, db database.DBTX, id uint64) (model.Assignment, error) {
	a, err := scanAssignment(db.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Assignment{}, ErrNotFound
	}
	return a, err
}

func (r *AssignmentRepo) List(ctx context.Context, q model.ListQuery) ([]model.Assignment, error) {
	where, args := searchWhere(assignmentSearchColumns, q.Search)
	order, err := orderBy(assignmentSortColumns, q.Sort, q.Desc, "id")
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+assignmentColumns+" FROM assignments"+where+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AssignmentRepo) Get(ctx context.Context, id uint64) (model.Assignment, error) {
	return getAssignment(ctx, r.db, id)
}

// Create inserts a and reads the row back so defaults (id, timestamps) are
// populated.
func (r *AssignmentRepo) Create(ctx context.Context, a model.Assignment) (model.Assignment, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO assignments (title, description, due_date, files) VALUES (?, ?, ?, ?)",
		a.Title, a.Description, a.DueDate, a.Files)
	if err != nil {
		return model.Assignment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Assignment{}, err
	}
	return getAssignment(ctx, r.db, uint64(id))
}

func (r *AssignmentRepo) Update(ctx context.Context, id uint64, p model.AssignmentPatch) (model.Assignment, error) {
	var sets []Set
	if p.Title != nil {
		sets = append(sets, Set{Column: "title", Value: *p.Title})
	}
	if p.Description != nil {
		sets = append(sets, Set{Column: "description", Value: *p.Description})
	}
	if p.DueDate != nil {
		sets = append(sets, Set{Column: "due_date", Value: *p.DueDate})
	}
	if p.Files != nil {
		sets = append(sets, Set{Column: "files", Value: *p.Files})
	}
	q, args, err := buildUpdate("assignments", "id", assignmentUpdatableColumns, sets, true)
	if err != nil {
		return model.Assignment{}, err
	}

	var out model.Assignment
	err = database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		if err := lockRow(ctx, tx, "assignments", "id", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, append(args, id)...); err != nil {
			return err
		}
		var err error
		out, err = getAssignment(ctx, tx, id)
		return err
	})
	return out, err
}

// Delete removes the assignment and its comments in one transaction.
func (r *AssignmentRepo) Delete(ctx context.Context, id uint64) error {
	return deleteWithComments(ctx, r.db, "assignments", "id", "assignment_comments", "assignment_id", id)
}

// lockRow selects the key FOR UPDATE and maps a missing row to ErrNotFound.
func lockRow(ctx context.Context, tx database.DBTX, table, keyColumn string, key any) error {
	var found any
	err := tx.QueryRowContext(ctx, "SELECT "+keyColumn+" FROM "+table+" WHERE "+keyColumn+" = ? FOR UPDATE", key).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// deleteWithComments removes the children first and then the parent.  A
// missing parent rolls the whole transaction back.
func deleteWithComments(ctx context.Context, db *sql.DB, table, keyColumn, commentTable, parentColumn string, key any) error {
	return database.WithTx(ctx, db, nil, func(ctx context.Context, tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+commentTable+" WHERE "+parentColumn+" = ?", key); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE "+keyColumn+" = ?", key)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}
