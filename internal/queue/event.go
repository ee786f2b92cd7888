// Package queue defines the change events exchanged over the message broker
// and the consumer that appends them to the audit log.
package queue

import "time"

// DefaultQueue is the durable queue change events are published to.
const DefaultQueue = "portal.changes"

// Actions carried by ChangeEvent.
const (
	ActionCreated         = "created"
	ActionUpdated         = "updated"
	ActionDeleted         = "deleted"
	ActionPasswordChanged = "password_changed"
)

// ChangeEvent is published after every successful mutation.  Family is the
// resource family ("weeks") or, for comments, the family followed by
// ".comments" ("weeks.comments").  ParentID is set for comments only.
type ChangeEvent struct {
	Family   string    `json:"family"`
	Action   string    `json:"action"`
	ID       string    `json:"id"`
	ParentID string    `json:"parent_id,omitempty"`
	At       time.Time `json:"at"`
}
