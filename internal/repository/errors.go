// Package repository defines the store interfaces used by the services, a
// MySQL implementation of them and the sentinel errors every implementation
// returns.  Higher layers translate the sentinels into client facing
// errors; anything else is treated as a store failure.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed record (or the parent of a
// new comment) does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update would duplicate a unique
// key such as a user id, an email or a week id.
var ErrConflict = errors.New("conflict")

// ErrNoFields is returned by updates that carry no column to change.
var ErrNoFields = errors.New("no fields to update")

// ErrUnknownColumn is returned when an update or sort names a column outside
// the table's allow-list.
var ErrUnknownColumn = errors.New("column not allowed")

// ErrUnknownFamily is returned by the comment store for a family that has
// no comment table.
var ErrUnknownFamily = errors.New("family has no comments")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
