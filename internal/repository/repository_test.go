package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-portal/internal/model"
)

var ts = time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func strPtr(s string) *string { return &s }

func TestBuildUpdate(t *testing.T) {
	q, args, err := buildUpdate("weeks", "week_id", weekUpdatableColumns,
		[]Set{{Column: "title", Value: "Intro"}, {Column: "links", Value: model.StringList{"a"}}}, true)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE weeks SET title = ?, links = ?, updated_at = CURRENT_TIMESTAMP WHERE week_id = ?", q)
	assert.Len(t, args, 2)

	_, _, err = buildUpdate("users", "id", userUpdatableColumns, []Set{{Column: "password", Value: "x"}}, false)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, _, err = buildUpdate("users", "id", userUpdatableColumns, nil, false)
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off\_now%`, likePattern("50% OFF_now"))
}

func TestOrderBy(t *testing.T) {
	clause, err := orderBy(userSortColumns, "name", true, "id")
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY name DESC, id ASC", clause)

	clause, err = orderBy(userSortColumns, "id", false, "id")
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY id ASC", clause)

	_, err = orderBy(userSortColumns, "password", false, "id")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestUserRepo_ListSearchAndSort(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	q := "SELECT id, name, email, created_at FROM users WHERE (LOWER(name) LIKE ? OR LOWER(id) LIKE ? OR LOWER(email) LIKE ?) ORDER BY name DESC, id ASC"
	mock.ExpectQuery(regexp.QuoteMeta(q)).
		WithArgs("%ali%", "%ali%", "%ali%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
			AddRow("S2", "Alice", "alice@uni.edu", ts).
			AddRow("S1", "Ali", "ali@uni.edu", ts))

	users, err := repo.List(context.Background(), model.ListQuery{Search: "Ali", Sort: "name", Desc: true})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Alice", users[0].Name)
	assert.Empty(t, users[0].PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = ? LIMIT 1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "created_at"}))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_CreateConflictOnExistingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE id = ? OR email = ?")).
		WithArgs("S1", "a@uni.edu").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), model.User{ID: "S1", Name: "A", Email: "a@uni.edu", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_CreateConflictOnDuplicateKey(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, name, email, password) VALUES (?, ?, ?, ?)")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), model.User{ID: "S1", Name: "A", Email: "a@uni.edu", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("S1", "Ann", "ann@uni.edu", "hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password, created_at FROM users WHERE id = ?")).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password", "created_at"}).
			AddRow("S1", "Ann", "ann@uni.edu", "hash", ts))
	mock.ExpectCommit()

	u, err := repo.Create(context.Background(), model.User{ID: "S1", Name: "Ann", Email: "ann@uni.edu", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, ts, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_UpdateEmailTakenByOther(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = ? FOR UPDATE")).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("S1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?")).
		WithArgs("b@uni.edu", "S1").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), "S1", model.UserPatch{Email: strPtr("b@uni.edu")})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ?")).
		WithArgs("S9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "S9"), ErrNotFound)
}

func TestAssignmentRepo_UpdateNoFields(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssignmentRepo(db)

	_, err := repo.Update(context.Background(), 1, model.AssignmentPatch{})
	assert.ErrorIs(t, err, ErrNoFields)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepo_UpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssignmentRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM assignments WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 7, model.AssignmentPatch{Title: strPtr("T")})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepo_UpdateOnlyProvidedColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssignmentRepo(db)
	due := model.MustDate("2025-03-01")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM assignments WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET title = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?")).
		WithArgs("New", "2025-03-01", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + assignmentColumns + " FROM assignments WHERE id = ?")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "due_date", "files", "created_at", "updated_at"}).
			AddRow(3, "New", "D", due.Time, `["https://a.test/f.pdf"]`, ts, ts))
	mock.ExpectCommit()

	a, err := repo.Update(context.Background(), 3, model.AssignmentPatch{Title: strPtr("New"), DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, "New", a.Title)
	assert.Equal(t, "2025-03-01", a.DueDate.String())
	assert.Equal(t, model.StringList{"https://a.test/f.pdf"}, a.Files)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAssignmentRepo(db)
	due := model.MustDate("2025-02-15")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignments (title, description, due_date, files) VALUES (?, ?, ?, ?)")).
		WithArgs("T", "D", "2025-02-15", "[]").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "due_date", "files", "created_at", "updated_at"}).
			AddRow(11, "T", "D", due.Time, nil, ts, ts))

	a, err := repo.Create(context.Background(), model.Assignment{Title: "T", Description: "D", DueDate: due})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), a.ID)
	assert.Equal(t, model.StringList{}, a.Files)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekRepo_DeleteCascades(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWeekRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM week_comments WHERE week_id = ?")).
		WithArgs("week_1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weeks WHERE week_id = ?")).
		WithArgs("week_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "week_1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekRepo_DeleteMissingRollsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWeekRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM week_comments WHERE week_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weeks WHERE week_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), "week_9"), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWeekRepo_CreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWeekRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM weeks WHERE week_id = ?")).
		WithArgs("week_1").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), model.Week{WeekID: "week_1", Title: "W", StartDate: model.MustDate("2025-01-06")})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepo_ListDefaultOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewResourceRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description, link, created_at FROM resources ORDER BY created_at DESC, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "link", "created_at"}).
			AddRow(2, "Go tour", nil, "https://go.dev/tour", ts))

	list, err := repo.List(context.Background(), model.ListQuery{Sort: "created_at", Desc: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "", list[0].Description)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_CreateParentMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM resources WHERE id = ? FOR UPDATE")).
		WithArgs("42").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), model.Comment{Family: model.FamilyResources, ParentID: "42", Author: "a", Text: "t"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_ListOldestFirst(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, week_id, author, text, created_at FROM week_comments WHERE week_id = ? ORDER BY created_at ASC, id ASC")).
		WithArgs("week_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "week_id", "author", "text", "created_at"}).
			AddRow(1, "week_1", "Ann", "first", ts).
			AddRow(2, "week_1", "Bob", "second", ts.Add(time.Minute)))

	list, err := repo.List(context.Background(), model.FamilyWeeks, "week_1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, model.FamilyWeeks, list[0].Family)
	assert.Equal(t, "week_1", list[1].ParentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_UnknownFamily(t *testing.T) {
	db, _ := newMock(t)
	repo := NewCommentRepo(db)

	_, err := repo.List(context.Background(), model.FamilyUsers, "S1")
	assert.ErrorIs(t, err, ErrUnknownFamily)
	assert.ErrorIs(t, repo.Delete(context.Background(), model.FamilyUsers, 1), ErrUnknownFamily)
}
