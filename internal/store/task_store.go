package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/planner/internal/model"
)

const taskColumns = `
	t.id, t.name, t.status, t.status_source, t.deadline, t.created_at,
	(SELECT COUNT(*) FROM checklist_items c WHERE c.task_id = t.id) AS item_count,
	(SELECT COUNT(*) FROM checklist_items c WHERE c.task_id = t.id AND c.checked = 1) AS checked_count`

// ListTasks returns every task ordered by created_at descending. Ties on
// created_at fall back to the newest id.
func (s *SQLStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.q.QueryxContext(ctx,
		"SELECT"+taskColumns+" FROM tasks t ORDER BY t.created_at DESC, t.id DESC")
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTask retrieves a single task by ID.
func (s *SQLStore) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	row := s.q.QueryRowxContext(ctx,
		s.q.Rebind("SELECT"+taskColumns+" FROM tasks t WHERE t.id = ?"), id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	return &task, nil
}

// CreateTask inserts a task with status todo and no deadline and returns
// its storage-assigned ID.
func (s *SQLStore) CreateTask(ctx context.Context, name string) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("task name must not be empty")
	}

	var id int64
	err := s.q.GetContext(ctx, &id, s.q.Rebind(`
		INSERT INTO tasks (name, status, status_source, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		name, string(model.StatusTodo), string(model.SourceDerived), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("creating task: %w", err)
	}
	return id, nil
}

// UpdateTaskName renames a task.
func (s *SQLStore) UpdateTaskName(ctx context.Context, id int64, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("task name must not be empty")
	}
	result, err := s.q.ExecContext(ctx,
		s.q.Rebind("UPDATE tasks SET name = ? WHERE id = ?"), name, id)
	if err != nil {
		return fmt.Errorf("renaming task %d: %w", id, err)
	}
	return expectRow(result, "task", id)
}

// UpdateTaskStatus persists a status together with the writer that
// produced it.
func (s *SQLStore) UpdateTaskStatus(
	ctx context.Context,
	id int64,
	status model.Status,
	source model.StatusSource,
) error {
	result, err := s.q.ExecContext(ctx,
		s.q.Rebind("UPDATE tasks SET status = ?, status_source = ? WHERE id = ?"),
		string(status), string(source), id)
	if err != nil {
		return fmt.Errorf("updating status of task %d: %w", id, err)
	}
	return expectRow(result, "task", id)
}

// UpdateTaskDeadline sets or clears (nil) the deadline of a task.
func (s *SQLStore) UpdateTaskDeadline(ctx context.Context, id int64, deadline *time.Time) error {
	var value interface{}
	if deadline != nil {
		value = deadline.UTC()
	}
	result, err := s.q.ExecContext(ctx,
		s.q.Rebind("UPDATE tasks SET deadline = ? WHERE id = ?"), value, id)
	if err != nil {
		return fmt.Errorf("updating deadline of task %d: %w", id, err)
	}
	return expectRow(result, "task", id)
}

// DeleteTask removes a task's checklist items and then the task itself
// in one transaction, so no orphaned items survive even without
// foreign-key enforcement.
func (s *SQLStore) DeleteTask(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(q dbtx) error {
		if _, err := q.ExecContext(ctx,
			q.Rebind("DELETE FROM checklist_items WHERE task_id = ?"), id); err != nil {
			return fmt.Errorf("deleting items of task %d: %w", id, err)
		}

		result, err := q.ExecContext(ctx, q.Rebind("DELETE FROM tasks WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("deleting task %d: %w", id, err)
		}
		return expectRow(result, "task", id)
	})
}

// scanTask scans a task row selected with taskColumns.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		task     model.Task
		status   string
		source   string
		deadline *time.Time
	)

	err := row.Scan(
		&task.ID, &task.Name, &status, &source, &deadline, &task.CreatedAt,
		&task.ItemCount, &task.CheckedCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, err
		}
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	task.Status = model.Status(status)
	task.StatusSource = model.StatusSource(source)
	task.Deadline = deadline
	return task, nil
}

// expectRow turns a zero rows-affected result into ErrNotFound.
func expectRow(result sql.Result, kind string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected for %s %d: %w", kind, id, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
