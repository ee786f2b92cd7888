package model

import "time"

// Week is one entry of the weekly breakdown.  WeekID is a caller chosen key
// such as "week_1"; it is not generated by the store.
type Week struct {
	WeekID      string     `json:"week_id"`
	Title       string     `json:"title"`
	StartDate   Date       `json:"start_date"`
	Description string     `json:"description"`
	Links       StringList `json:"links"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// WeekPatch is a partial update; nil fields are left unchanged.
type WeekPatch struct {
	Title       *string
	StartDate   *Date
	Description *string
	Links       *StringList
}

func (p WeekPatch) Empty() bool {
	return p.Title == nil && p.StartDate == nil && p.Description == nil && p.Links == nil
}
