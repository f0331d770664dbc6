package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

// Task status constants. StatusExpired is only reachable when the task
// has a deadline.
const (
	StatusTodo    Status = "todo"
	StatusDoing   Status = "doing"
	StatusDone    Status = "done"
	StatusExpired Status = "expired"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{StatusTodo, StatusDoing, StatusDone, StatusExpired}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone, StatusExpired:
		return true
	}
	return false
}

// Label returns the human-readable name of the status.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To do"
	case StatusDoing:
		return "Doing"
	case StatusDone:
		return "Done"
	case StatusExpired:
		return "Expired"
	default:
		return string(s)
	}
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// StatusSource records which writer produced a task's current status.
//
// Precedence is last-writer-wins with one fixed rule: any checklist
// mutation re-derives the status from the items and records
// SourceDerived, overwriting a manual or deadline status (including
// expired). Manual and deadline writes are never re-derived and stand
// until the next checklist mutation or deadline change.
type StatusSource string

const (
	// SourceDerived means the status was computed from checklist items.
	SourceDerived StatusSource = "derived"
	// SourceManual means the user picked the status directly.
	SourceManual StatusSource = "manual"
	// SourceDeadline means the deadline engine set or cleared expired.
	SourceDeadline StatusSource = "deadline"
)

// Task is a top-level to-do unit owning an ordered checklist.
type Task struct {
	ID           int64        `json:"id" yaml:"id" db:"id"`
	Name         string       `json:"name" yaml:"name" db:"name"`
	Status       Status       `json:"status" yaml:"status" db:"status"`
	StatusSource StatusSource `json:"status_source" yaml:"status_source" db:"status_source"`
	Deadline     *time.Time   `json:"deadline,omitempty" yaml:"deadline,omitempty" db:"deadline"`
	CreatedAt    time.Time    `json:"created_at" yaml:"created_at" db:"created_at"`

	// ItemCount and CheckedCount are populated by list queries.
	ItemCount    int `json:"item_count" yaml:"item_count" db:"item_count"`
	CheckedCount int `json:"checked_count" yaml:"checked_count" db:"checked_count"`
}

// HasDeadline reports whether a deadline is set.
func (t Task) HasDeadline() bool { return t.Deadline != nil }

// IsPastDeadline reports whether the deadline lies strictly before now.
func (t Task) IsPastDeadline(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now)
}

// SelectableStatuses returns the statuses a user may pick manually.
// Expired is offered only when a deadline exists.
func (t Task) SelectableStatuses() []Status {
	if t.HasDeadline() {
		return AllStatuses
	}
	return AllStatuses[:3]
}

// Progress returns the checklist completion counts from the list query.
func (t Task) Progress() Progress {
	return Progress{Total: t.ItemCount, Completed: t.CheckedCount}
}
