package domain

import "time"

type ActivityKind string

const (
	ActivityChat   ActivityKind = "chat"
	ActivityJoin   ActivityKind = "join"
	ActivityLeave  ActivityKind = "leave"
	ActivityEdit   ActivityKind = "edit"
	ActivityRename ActivityKind = "rename"
	ActivityError  ActivityKind = "error"
)

// ActivityEvent is one row of the per-project journal: chat lines,
// membership changes and edit traffic, kept for the chat view and for
// ActivityTail.
type ActivityEvent struct {
	ID         string
	Project    string
	Kind       ActivityKind
	Actor      string
	Text       string
	OccurredAt time.Time
}
