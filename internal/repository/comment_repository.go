package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/course-portal/internal/database"
	"github.com/iliyamo/course-portal/internal/model"
)

// commentTable describes where a family keeps its comments and how they
// point at their parent.
type commentTable struct {
	table       string
	parentTable string
	parentKey   string // column in table
	parentPK    string // column in parentTable
}

var commentTables = map[model.Family]commentTable{
	model.FamilyAssignments: {table: "assignment_comments", parentTable: "assignments", parentKey: "assignment_id", parentPK: "id"},
	model.FamilyWeeks:       {table: "week_comments", parentTable: "weeks", parentKey: "week_id", parentPK: "week_id"},
	model.FamilyResources:   {table: "resource_comments", parentTable: "resources", parentKey: "resource_id", parentPK: "id"},
}

func lookupCommentTable(f model.Family) (commentTable, error) {
	t, ok := commentTables[f]
	if !ok {
		return commentTable{}, ErrUnknownFamily
	}
	return t, nil
}

// CommentRepo is the MySQL backed CommentStore for all three families.
type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

func (t commentTable) selectSQL() string {
	return "SELECT id, " + t.parentKey + ", author, text, created_at FROM " + t.table
}

func scanComment(s scanner, f model.Family) (model.Comment, error) {
	c := model.Comment{Family: f}
	err := s.Scan(&c.ID, &c.ParentID, &c.Author, &c.Text, &c.CreatedAt)
	return c, err
}

// List returns the comments of one parent, oldest first.  An unknown
// parent simply has no comments.
func (r *CommentRepo) List(ctx context.Context, family model.Family, parentID string) ([]model.Comment, error) {
	t, err := lookupCommentTable(family)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		t.selectSQL()+" WHERE "+t.parentKey+" = ? ORDER BY created_at ASC, id ASC", parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows, family)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts c after locking its parent so a concurrent delete cannot
// leave the comment orphaned.
func (r *CommentRepo) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	t, err := lookupCommentTable(c.Family)
	if err != nil {
		return model.Comment{}, err
	}

	var out model.Comment
	err = database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		if err := lockRow(ctx, tx, t.parentTable, t.parentPK, c.ParentID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO "+t.table+" ("+t.parentKey+", author, text) VALUES (?, ?, ?)",
			c.ParentID, c.Author, c.Text)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		out, err = scanComment(tx.QueryRowContext(ctx, t.selectSQL()+" WHERE id = ?", id), c.Family)
		return err
	})
	return out, err
}

func (r *CommentRepo) Delete(ctx context.Context, family model.Family, id uint64) error {
	t, err := lookupCommentTable(family)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+t.table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
