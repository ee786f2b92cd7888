package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/course-portal/internal/database"
	"github.com/iliyamo/course-portal/internal/model"
)

var (
	resourceSearchColumns    = []string{"title", "description"}
	resourceSortColumns      = []string{"title", "created_at"}
	resourceUpdatableColumns = []string{"title", "description", "link"}
)

const resourceColumns = "id, title, description, link, created_at"

// ResourceRepo is the MySQL ResourceStore.
type ResourceRepo struct {
	db *sql.DB
}

func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{db: db} }

func scanResource(s scanner) (model.Resource, error) {
	var res model.Resource
	var desc sql.NullString
	err := s.Scan(&res.ID, &res.Title, &desc, &res.Link, &res.CreatedAt)
	res.Description = desc.String
	return res, err
}

func getResource(ctx context.Context, db database.DBTX, id uint64) (model.Resource, error) {
	res, err := scanResource(db.QueryRowContext(ctx,
		"SELECT "+resourceColumns+" FROM resources WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Resource{}, ErrNotFound
	}
	return res, err
}

func (r *ResourceRepo) List(ctx context.Context, q model.ListQuery) ([]model.Resource, error) {
	where, args := searchWhere(resourceSearchColumns, q.Search)
	order, err := orderBy(resourceSortColumns, q.Sort, q.Desc, "id")
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT "+resourceColumns+" FROM resources"+where+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ResourceRepo) Get(ctx context.Context, id uint64) (model.Resource, error) {
	return getResource(ctx, r.db, id)
}

func (r *ResourceRepo) Create(ctx context.Context, res model.Resource) (model.Resource, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO resources (title, description, link) VALUES (?, ?, ?)",
		res.Title, res.Description, res.Link)
	if err != nil {
		return model.Resource{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Resource{}, err
	}
	return getResource(ctx, r.db, uint64(id))
}

// Update changes the provided fields.  Resources carry no updated_at.
func (r *ResourceRepo) Update(ctx context.Context, id uint64, p model.ResourcePatch) (model.Resource, error) {
	var sets []Set
	if p.Title != nil {
		sets = append(sets, Set{Column: "title", Value: *p.Title})
	}
	if p.Description != nil {
		sets = append(sets, Set{Column: "description", Value: *p.Description})
	}
	if p.Link != nil {
		sets = append(sets, Set{Column: "link", Value: *p.Link})
	}
	q, args, err := buildUpdate("resources", "id", resourceUpdatableColumns, sets, false)
	if err != nil {
		return model.Resource{}, err
	}

	var out model.Resource
	err = database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		if err := lockRow(ctx, tx, "resources", "id", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, append(args, id)...); err != nil {
			return err
		}
		var err error
		out, err = getResource(ctx, tx, id)
		return err
	})
	return out, err
}

// Delete removes the resource and its comments in one transaction.
func (r *ResourceRepo) Delete(ctx context.Context, id uint64) error {
	return deleteWithComments(ctx, r.db, "resources", "id", "resource_comments", "resource_id", id)
}
