package repository

import (
	"fmt"
	"slices"
	"strings"
)

// Set is one column assignment of a partial update.
type Set struct {
	Column string
	Value  any
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// buildUpdate renders "UPDATE table SET a = ?, b = ? WHERE key = ?" for the
// given sets.  Every column must be in allowed.  The caller appends the key
// value to the returned args.
func buildUpdate(table, keyColumn string, allowed []string, sets []Set, stamp bool) (string, []any, error) {
	if len(sets) == 0 {
		return "", nil, ErrNoFields
	}
	parts := make([]string, 0, len(sets)+1)
	args := make([]any, 0, len(sets)+1)
	for _, s := range sets {
		if !slices.Contains(allowed, s.Column) {
			return "", nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, s.Column)
		}
		parts = append(parts, s.Column+" = ?")
		args = append(args, s.Value)
	}
	if stamp {
		parts = append(parts, "updated_at = CURRENT_TIMESTAMP")
	}
	q := "UPDATE " + table + " SET " + strings.Join(parts, ", ") + " WHERE " + keyColumn + " = ?"
	return q, args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a search term into a case-insensitive substring
// pattern with LIKE wildcards in the term escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// searchWhere ORs a LIKE over cols.  An empty search yields no clause.
func searchWhere(cols []string, search string) (string, []any) {
	if search == "" {
		return "", nil
	}
	p := likePattern(search)
	conds := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		conds = append(conds, "LOWER("+c+") LIKE ?")
		args = append(args, p)
	}
	return " WHERE (" + strings.Join(conds, " OR ") + ")", args
}

// orderBy renders the ORDER BY clause.  Ties fall back to the primary key
// so listings are stable.
func orderBy(sortable []string, sort string, desc bool, pk string) (string, error) {
	if !slices.Contains(sortable, sort) {
		return "", fmt.Errorf("%w: sort %q", ErrUnknownColumn, sort)
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	clause := " ORDER BY " + sort + " " + dir
	if sort != pk {
		clause += ", " + pk + " ASC"
	}
	return clause, nil
}
