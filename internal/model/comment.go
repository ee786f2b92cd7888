package model

import (
	"encoding/json"
	"time"
)

// Family names a resource family.  The values double as the `resource`
// query parameter accepted by the endpoints.
type Family string

const (
	FamilyUsers       Family = "users"
	FamilyAssignments Family = "assignments"
	FamilyWeeks       Family = "weeks"
	FamilyResources   Family = "resources"
	FamilyComments    Family = "comments"
)

// ParentKey is the JSON and column name under which a comment of this
// family refers to its parent.
func (f Family) ParentKey() string {
	switch f {
	case FamilyAssignments:
		return "assignment_id"
	case FamilyWeeks:
		return "week_id"
	case FamilyResources:
		return "resource_id"
	}
	return ""
}

// Comment is an append-only note attached to an assignment, a week or a
// resource.  ParentID is kept as a string so that week keys and numeric ids
// share one type; it is serialized under Family.ParentKey().
type Comment struct {
	ID        uint64    `json:"id"`
	Family    Family    `json:"-"`
	ParentID  string    `json:"-"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (c Comment) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":         c.ID,
		"author":     c.Author,
		"text":       c.Text,
		"created_at": c.CreatedAt,
	}
	if key := c.Family.ParentKey(); key != "" {
		out[key] = c.ParentID
	}
	return json.Marshal(out)
}
