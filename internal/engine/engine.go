// Package engine keeps task status consistent with checklist contents and
// deadlines. It owns the task selection and the item list of the selected
// task, and republishes a snapshot only after every step of an operation
// has succeeded.
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
)

// Snapshot is a read-only copy of the engine state for presentation.
type Snapshot struct {
	Tasks        []model.Task          `json:"tasks" yaml:"tasks"`
	SelectedID   int64                 `json:"selected_id" yaml:"selected_id"`
	SelectedTask *model.Task           `json:"selected_task" yaml:"selected_task"`
	Items        []model.ChecklistItem `json:"items" yaml:"items"`
	Progress     model.Progress        `json:"progress" yaml:"progress"`
}

// HasSelection reports whether a task is selected.
func (s Snapshot) HasSelection() bool { return s.SelectedTask != nil }

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock the deadline engine compares against.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine coordinates the task store, the item list of the selected task,
// and status derivation. It is safe for concurrent use; mutations of the
// same task are serialized.
type Engine struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
	locks  *taskLocks

	mu       sync.Mutex
	tasks    []model.Task
	selected int64
	items    []model.ChecklistItem
}

// New creates an engine over s. A nil logger disables logging.
func New(s store.Store, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		store:  s,
		logger: logger.Named("engine"),
		now:    time.Now,
		locks:  newTaskLocks(),
		tasks:  []model.Task{},
		items:  []model.ChecklistItem{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Tasks:      append([]model.Task(nil), e.tasks...),
		SelectedID: e.selected,
		Items:      append([]model.ChecklistItem(nil), e.items...),
	}
	if snap.Tasks == nil {
		snap.Tasks = []model.Task{}
	}
	if snap.Items == nil {
		snap.Items = []model.ChecklistItem{}
	}
	for i := range snap.Tasks {
		if snap.Tasks[i].ID == e.selected {
			t := snap.Tasks[i]
			snap.SelectedTask = &t
			break
		}
	}
	snap.Progress = model.ProgressOf(snap.Items)
	return snap
}

// Load reloads the task list. The current selection is kept when it still
// exists; otherwise the first (newest) task is selected.
func (e *Engine) Load(ctx context.Context) error {
	o := e.begin("load")

	tasks, err := e.store.ListTasks(ctx)
	if err != nil {
		return o.fail(err)
	}

	e.mu.Lock()
	sel := e.selected
	e.mu.Unlock()
	if !containsTask(tasks, sel) {
		sel = firstTaskID(tasks)
	}

	items, err := e.loadItems(ctx, sel)
	if err != nil {
		return o.fail(err)
	}

	e.mu.Lock()
	e.tasks = tasks
	e.selected = sel
	e.items = items
	e.mu.Unlock()

	o.done(zap.Int("tasks", len(tasks)), zap.Int64("selected", sel))
	return nil
}

// SelectTask makes id the selected task and loads its items. Zero, or an
// id that no longer exists, clears the selection.
func (e *Engine) SelectTask(ctx context.Context, id int64) error {
	o := e.begin("select task", zap.Int64("task_id", id))

	tasks, err := e.store.ListTasks(ctx)
	if err != nil {
		return o.fail(err)
	}
	if !containsTask(tasks, id) {
		id = 0
	}

	items, err := e.loadItems(ctx, id)
	if err != nil {
		return o.fail(err)
	}

	e.mu.Lock()
	e.tasks = tasks
	e.selected = id
	e.items = items
	e.mu.Unlock()

	o.done()
	return nil
}

// CreateTask inserts a task named name (trimmed) and selects it.
func (e *Engine) CreateTask(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, validationf("task name must not be empty")
	}
	o := e.begin("create task")

	id, err := e.store.CreateTask(ctx, name)
	if err != nil {
		return 0, o.fail(err)
	}

	tasks, err := e.store.ListTasks(ctx)
	if err != nil {
		return 0, o.fail(err)
	}
	items, err := e.loadItems(ctx, id)
	if err != nil {
		return 0, o.fail(err)
	}

	e.mu.Lock()
	e.tasks = tasks
	e.selected = id
	e.items = items
	e.mu.Unlock()

	o.done(zap.Int64("task_id", id))
	return id, nil
}

// RenameTask renames a task. An empty name, or one equal to the stored
// name, is a no-op.
func (e *Engine) RenameTask(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	unlock := e.locks.lock(id)
	defer unlock()
	o := e.begin("rename task", zap.Int64("task_id", id))

	task, err := e.store.GetTask(ctx, id)
	if err != nil {
		return o.fail(err)
	}
	if task.Name == name {
		return nil
	}

	if err := e.store.UpdateTaskName(ctx, id, name); err != nil {
		return o.fail(err)
	}
	if err := e.reloadTasks(ctx); err != nil {
		return o.fail(err)
	}

	o.done()
	return nil
}

// DeleteTask removes a task and its items. When the deleted task was
// selected, the selection moves to the first remaining task, or none.
func (e *Engine) DeleteTask(ctx context.Context, id int64) error {
	unlock := e.locks.lock(id)
	defer unlock()
	o := e.begin("delete task", zap.Int64("task_id", id))

	if err := e.store.DeleteTask(ctx, id); err != nil {
		return o.fail(err)
	}

	tasks, err := e.store.ListTasks(ctx)
	if err != nil {
		return o.fail(err)
	}

	e.mu.Lock()
	wasSelected := e.selected == id
	e.mu.Unlock()

	next := firstTaskID(tasks)
	var items []model.ChecklistItem
	if wasSelected {
		if items, err = e.loadItems(ctx, next); err != nil {
			return o.fail(err)
		}
	}

	e.mu.Lock()
	e.tasks = tasks
	if e.selected == id {
		e.selected = next
		if items == nil {
			items = []model.ChecklistItem{}
		}
		e.items = items
	}
	e.mu.Unlock()

	o.done(zap.Int64("selected", next))
	return nil
}

// SetStatus persists status as a manual override without re-deriving.
// Expired is accepted only when the task has a deadline.
func (e *Engine) SetStatus(ctx context.Context, id int64, status model.Status) error {
	if !status.Valid() {
		return validationf("unknown status %q", status)
	}

	unlock := e.locks.lock(id)
	defer unlock()
	o := e.begin("set status", zap.Int64("task_id", id), zap.String("status", string(status)))

	err := e.store.WithTx(ctx, func(tx store.Store) error {
		if status == model.StatusExpired {
			task, err := tx.GetTask(ctx, id)
			if err != nil {
				return err
			}
			if !task.HasDeadline() {
				return validationf("task %d has no deadline", id)
			}
		}
		return tx.UpdateTaskStatus(ctx, id, status, model.SourceManual)
	})
	if errors.Is(err, ErrValidation) {
		return err
	}
	if err != nil {
		return o.fail(err)
	}
	if err := e.reloadTasks(ctx); err != nil {
		return o.fail(err)
	}

	o.done()
	return nil
}

// SetDeadline persists a deadline (nil clears it) and reconciles the
// expired status against the current time. The resulting status is not
// re-derived from items.
func (e *Engine) SetDeadline(ctx context.Context, id int64, deadline *time.Time) error {
	unlock := e.locks.lock(id)
	defer unlock()
	o := e.begin("set deadline", zap.Int64("task_id", id), zap.Bool("clear", deadline == nil))

	var (
		next    model.Status
		changed bool
	)
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		task, err := tx.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.UpdateTaskDeadline(ctx, id, deadline); err != nil {
			return err
		}
		next, changed = ReconcileDeadline(task.Status, deadline, e.now())
		if !changed {
			return nil
		}
		return tx.UpdateTaskStatus(ctx, id, next, model.SourceDeadline)
	})
	if err != nil {
		return o.fail(err)
	}

	if err := e.reloadTasks(ctx); err != nil {
		return o.fail(err)
	}

	o.done(zap.String("status", string(next)), zap.Bool("status_changed", changed))
	return nil
}

// AddItem appends an item to the selected task. With no selection, or
// text that trims to empty, it does nothing.
func (e *Engine) AddItem(ctx context.Context, text string) error {
	e.mu.Lock()
	taskID := e.selected
	e.mu.Unlock()

	if taskID == 0 {
		return nil
	}
	return e.AddItemTo(ctx, taskID, text)
}

// AddItemTo appends an item to taskID and re-derives its status. Text that
// trims to empty is a no-op. The selection is not changed.
func (e *Engine) AddItemTo(ctx context.Context, taskID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	o := e.begin("add item", zap.Int64("task_id", taskID))
	return e.mutateItems(ctx, o, taskID, func(tx store.Store) error {
		if _, err := tx.GetTask(ctx, taskID); err != nil {
			return err
		}
		_, err := tx.AddItem(ctx, taskID, text)
		return err
	})
}

// ToggleItem flips an item's checked state and re-derives its task.
func (e *Engine) ToggleItem(ctx context.Context, itemID int64) error {
	o := e.begin("toggle item", zap.Int64("item_id", itemID))

	item, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return o.fail(err)
	}

	return e.mutateItems(ctx, o.with(zap.Int64("task_id", item.TaskID)), item.TaskID, func(tx store.Store) error {
		return tx.ToggleItem(ctx, itemID)
	})
}

// DeleteItem removes an item and re-derives its task.
func (e *Engine) DeleteItem(ctx context.Context, itemID int64) error {
	o := e.begin("delete item", zap.Int64("item_id", itemID))

	item, err := e.store.GetItem(ctx, itemID)
	if err != nil {
		return o.fail(err)
	}

	return e.mutateItems(ctx, o.with(zap.Int64("task_id", item.TaskID)), item.TaskID, func(tx store.Store) error {
		return tx.DeleteItem(ctx, itemID)
	})
}

// mutateItems runs write, reload-items, re-derive and persist-status in
// one transaction under the task's lock, then reloads the task list.
// State is only published when every step succeeds.
func (e *Engine) mutateItems(ctx context.Context, o *op, taskID int64, write func(tx store.Store) error) error {
	unlock := e.locks.lock(taskID)
	defer unlock()

	var (
		items  []model.ChecklistItem
		status model.Status
	)
	err := e.store.WithTx(ctx, func(tx store.Store) error {
		if err := write(tx); err != nil {
			return err
		}
		var err error
		if items, err = tx.ListItems(ctx, taskID); err != nil {
			return err
		}
		status = Derive(items)
		return tx.UpdateTaskStatus(ctx, taskID, status, model.SourceDerived)
	})
	if err != nil {
		return o.fail(err)
	}

	tasks, err := e.store.ListTasks(ctx)
	if err != nil {
		return o.fail(err)
	}

	e.mu.Lock()
	e.tasks = tasks
	if e.selected == taskID {
		e.items = items
	}
	e.mu.Unlock()

	o.done(zap.String("status", string(status)), zap.Int("items", len(items)))
	return nil
}

func (e *Engine) reloadTasks(ctx context.Context) error {
	tasks, err := e.store.ListTasks(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.tasks = tasks
	e.mu.Unlock()
	return nil
}

func (e *Engine) loadItems(ctx context.Context, taskID int64) ([]model.ChecklistItem, error) {
	if taskID == 0 {
		return []model.ChecklistItem{}, nil
	}
	return e.store.ListItems(ctx, taskID)
}

func containsTask(tasks []model.Task, id int64) bool {
	if id == 0 {
		return false
	}
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func firstTaskID(tasks []model.Task) int64 {
	if len(tasks) == 0 {
		return 0
	}
	return tasks[0].ID
}

// op carries the logging context of one engine operation.
type op struct {
	name   string
	logger *zap.Logger
}

func (e *Engine) begin(name string, fields ...zap.Field) *op {
	fields = append([]zap.Field{
		zap.String("op", name),
		zap.String("op_id", uuid.NewString()),
	}, fields...)
	return &op{name: name, logger: e.logger.With(fields...)}
}

func (o *op) with(fields ...zap.Field) *op {
	return &op{name: o.name, logger: o.logger.With(fields...)}
}

// fail logs err and wraps it as a StorageError.
func (o *op) fail(err error) error {
	o.logger.Error("operation failed", zap.Error(err))
	var serr *StorageError
	if errors.As(err, &serr) {
		return err
	}
	return &StorageError{Op: o.name, Err: err}
}

func (o *op) done(fields ...zap.Field) {
	o.logger.Debug("operation completed", fields...)
}
