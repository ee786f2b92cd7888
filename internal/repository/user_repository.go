package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/course-portal/internal/database"
	"github.com/iliyamo/course-portal/internal/model"
)

var (
	userSearchColumns    = []string{"name", "id", "email"}
	userSortColumns      = []string{"name", "id", "email", "created_at"}
	userUpdatableColumns = []string{"name", "email"}
)

// UserRepo is the MySQL backed UserStore.  The password hash lives in the
// users.password column.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(s scanner, withHash bool) (model.User, error) {
	var u model.User
	dest := []any{&u.ID, &u.Name, &u.Email}
	if withHash {
		dest = append(dest, &u.PasswordHash)
	}
	dest = append(dest, &u.CreatedAt)
	err := s.Scan(dest...)
	return u, err
}

// List returns users matching q.Search on name, id or email.  Password
// hashes are not selected.
func (r *UserRepo) List(ctx context.Context, q model.ListQuery) ([]model.User, error) {
	where, args := searchWhere(userSearchColumns, q.Search)
	order, err := orderBy(userSortColumns, q.Sort, q.Desc, "id")
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, email, created_at FROM users"+where+order, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (model.User, error) {
	return getUser(ctx, r.db, "id", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return getUser(ctx, r.db, "email", email)
}

func getUser(ctx context.Context, db database.DBTX, column, value string) (model.User, error) {
	q := "SELECT id, name, email, password, created_at FROM users WHERE " + column + " = ? LIMIT 1"
	u, err := scanUser(db.QueryRowContext(ctx, q, value), true)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Create inserts u after checking that neither its id nor its email is
// taken.  The check and the insert share one transaction; the unique keys
// catch anything that slips past the check.
func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	var out model.User
	err := database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM users WHERE id = ? OR email = ?", u.ID, u.Email).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO users (id, name, email, password) VALUES (?, ?, ?, ?)",
			u.ID, u.Name, u.Email, u.PasswordHash); err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return err
		}
		var err error
		out, err = getUser(ctx, tx, "id", u.ID)
		return err
	})
	return out, err
}

// Update changes the provided fields.  A new email must not belong to any
// other user.
func (r *UserRepo) Update(ctx context.Context, id string, p model.UserPatch) (model.User, error) {
	var sets []Set
	if p.Name != nil {
		sets = append(sets, Set{Column: "name", Value: *p.Name})
	}
	if p.Email != nil {
		sets = append(sets, Set{Column: "email", Value: *p.Email})
	}
	q, args, err := buildUpdate("users", "id", userUpdatableColumns, sets, false)
	if err != nil {
		return model.User{}, err
	}

	var out model.User
	err = database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		var found string
		if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ? FOR UPDATE", id).Scan(&found); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if p.Email != nil {
			var n int
			if err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?", *p.Email, id).Scan(&n); err != nil {
				return err
			}
			if n > 0 {
				return ErrConflict
			}
		}
		if _, err := tx.ExecContext(ctx, q, append(args, id)...); err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return err
		}
		var err error
		out, err = getUser(ctx, tx, "id", id)
		return err
	})
	return out, err
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password = ? WHERE id = ?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
