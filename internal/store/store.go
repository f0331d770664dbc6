package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/planner/internal/model"
)

// ErrNotFound is returned when an update or delete matches no row.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for tasks and their checklist
// items. Implementations must make ToggleItem an atomic flip and must
// remove a task's items together with the task.
type Store interface {
	// === Tasks ===

	// ListTasks returns all tasks, newest created_at first, with item
	// counts populated.
	ListTasks(ctx context.Context) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	CreateTask(ctx context.Context, name string) (int64, error)
	UpdateTaskName(ctx context.Context, id int64, name string) error
	UpdateTaskStatus(ctx context.Context, id int64, status model.Status, source model.StatusSource) error
	UpdateTaskDeadline(ctx context.Context, id int64, deadline *time.Time) error
	DeleteTask(ctx context.Context, id int64) error

	// === Checklist items ===

	// ListItems returns the items of a task ordered by position.
	ListItems(ctx context.Context, taskID int64) ([]model.ChecklistItem, error)
	GetItem(ctx context.Context, id int64) (*model.ChecklistItem, error)
	// AddItem appends an item at max(position)+1, or 0 for the first.
	AddItem(ctx context.Context, taskID int64, text string) (int64, error)
	ToggleItem(ctx context.Context, id int64) error
	DeleteItem(ctx context.Context, id int64) error

	// WithTx runs fn against a Store bound to one transaction. It commits
	// when fn returns nil and rolls back otherwise. Calls made on the
	// outer Store while fn runs are not part of the transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Close() error
}
