package model

import "time"

// Resource is a shared course link (slides, articles, tools).
type Resource struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	CreatedAt   time.Time `json:"created_at"`
}

// ResourcePatch is a partial update.
type ResourcePatch struct {
	Title       *string
	Description *string
	Link        *string
}

func (p ResourcePatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Link == nil
}
