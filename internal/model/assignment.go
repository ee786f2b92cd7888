package model

import "time"

// Assignment is a row of the `assignments` table.  Files holds download
// URLs in display order.
type Assignment struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     Date       `json:"due_date"`
	Files       StringList `json:"files"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AssignmentPatch is a partial update; nil fields are left unchanged.
type AssignmentPatch struct {
	Title       *string
	Description *string
	DueDate     *Date
	Files       *StringList
}

func (p AssignmentPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Files == nil
}
