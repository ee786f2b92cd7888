package model

import "time"

// User represents a portal account as stored in the `users` table.  The ID
// is the student's university id and is supplied by the caller rather than
// generated by the database.
//
// Fields:
//  ID           : users.id, unique, user supplied.
//  Name         : display name.
//  Email        : unique email address.
//  PasswordHash : bcrypt hash; never serialized.
//  CreatedAt    : timestamp of creation.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserPatch lists the user fields that may change through an update.  A nil
// field was not present in the request.
type UserPatch struct {
	Name  *string
	Email *string
}

// Empty reports whether the patch carries no field at all.
func (p UserPatch) Empty() bool { return p.Name == nil && p.Email == nil }
