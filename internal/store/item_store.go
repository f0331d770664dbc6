package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/planner/internal/model"
)

// ListItems returns all checklist items for a task, ordered by position.
func (s *SQLStore) ListItems(ctx context.Context, taskID int64) ([]model.ChecklistItem, error) {
	rows, err := s.q.QueryxContext(ctx, s.q.Rebind(`
		SELECT id, task_id, text, checked, position
		FROM checklist_items
		WHERE task_id = ?
		ORDER BY position ASC, id ASC`), taskID)
	if err != nil {
		return nil, fmt.Errorf("querying checklist items: %w", err)
	}
	defer rows.Close()

	items := []model.ChecklistItem{}
	for rows.Next() {
		item, err := scanChecklistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItem retrieves a single checklist item by ID.
func (s *SQLStore) GetItem(ctx context.Context, id int64) (*model.ChecklistItem, error) {
	row := s.q.QueryRowxContext(ctx, s.q.Rebind(`
		SELECT id, task_id, text, checked, position
		FROM checklist_items WHERE id = ?`), id)

	item, err := scanChecklistItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checklist item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting checklist item %d: %w", id, err)
	}
	return &item, nil
}

// AddItem appends a checklist item to a task. The position is computed
// as max(position)+1 within the same transaction as the insert.
func (s *SQLStore) AddItem(ctx context.Context, taskID int64, text string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("checklist item text must not be empty")
	}

	var id int64
	err := s.inTx(ctx, func(q dbtx) error {
		var position int
		err := q.GetContext(ctx, &position, q.Rebind(
			"SELECT COALESCE(MAX(position), -1) + 1 FROM checklist_items WHERE task_id = ?"),
			taskID)
		if err != nil {
			return fmt.Errorf("getting next checklist position: %w", err)
		}

		err = q.GetContext(ctx, &id, q.Rebind(`
			INSERT INTO checklist_items (task_id, text, checked, position)
			VALUES (?, ?, ?, ?)
			RETURNING id`),
			taskID, text, boolToInt(false), position,
		)
		if err != nil {
			return fmt.Errorf("adding checklist item: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ToggleItem flips the checked state of a checklist item in a single
// UPDATE.
func (s *SQLStore) ToggleItem(ctx context.Context, id int64) error {
	result, err := s.q.ExecContext(ctx, s.q.Rebind(
		"UPDATE checklist_items SET checked = CASE WHEN checked = 0 THEN 1 ELSE 0 END WHERE id = ?"),
		id)
	if err != nil {
		return fmt.Errorf("toggling checklist item %d: %w", id, err)
	}
	return expectRow(result, "checklist item", id)
}

// DeleteItem removes a checklist item. Remaining positions are left
// untouched.
func (s *SQLStore) DeleteItem(ctx context.Context, id int64) error {
	result, err := s.q.ExecContext(ctx,
		s.q.Rebind("DELETE FROM checklist_items WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting checklist item %d: %w", id, err)
	}
	return expectRow(result, "checklist item", id)
}

// scanChecklistItem scans a checklist_items row.
func scanChecklistItem(row interface{ Scan(dest ...interface{}) error }) (model.ChecklistItem, error) {
	var (
		item       model.ChecklistItem
		checkedInt int
	)

	err := row.Scan(&item.ID, &item.TaskID, &item.Text, &checkedInt, &item.Position)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ChecklistItem{}, err
		}
		return model.ChecklistItem{}, fmt.Errorf("scanning checklist item row: %w", err)
	}

	item.Checked = checkedInt != 0
	return item, nil
}
