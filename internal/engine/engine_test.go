package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/planner/internal/engine"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/tests/testutil"
)

func newEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	e := engine.New(testutil.NewTestStore(t), zaptest.NewLogger(t), opts...)
	require.NoError(t, e.Load(context.Background()))
	return e
}

func selected(t *testing.T, e *engine.Engine) model.Task {
	t.Helper()
	snap := e.Snapshot()
	require.NotNil(t, snap.SelectedTask)
	return *snap.SelectedTask
}

func itemByText(t *testing.T, e *engine.Engine, text string) model.ChecklistItem {
	t.Helper()
	for _, it := range e.Snapshot().Items {
		if it.Text == text {
			return it
		}
	}
	t.Fatalf("item %q not in snapshot", text)
	return model.ChecklistItem{}
}

func TestChecklistDrivesStatus(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	id, err := e.CreateTask(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, id, e.Snapshot().SelectedID)
	assert.Equal(t, model.StatusTodo, selected(t, e).Status)

	require.NoError(t, e.AddItem(ctx, "Milk"))
	require.NoError(t, e.AddItem(ctx, "Eggs"))
	assert.Equal(t, model.StatusTodo, selected(t, e).Status)
	assert.Equal(t, model.Progress{Total: 2, Completed: 0}, e.Snapshot().Progress)

	require.NoError(t, e.ToggleItem(ctx, itemByText(t, e, "Eggs").ID))
	task := selected(t, e)
	assert.Equal(t, model.StatusDoing, task.Status)
	assert.Equal(t, model.SourceDerived, task.StatusSource)
	assert.Equal(t, 50, e.Snapshot().Progress.Percent())

	require.NoError(t, e.DeleteItem(ctx, itemByText(t, e, "Milk").ID))
	assert.Equal(t, model.StatusDone, selected(t, e).Status)
	assert.Equal(t, model.Progress{Total: 1, Completed: 1}, e.Snapshot().Progress)

	require.NoError(t, e.ToggleItem(ctx, itemByText(t, e, "Eggs").ID))
	assert.Equal(t, model.StatusTodo, selected(t, e).Status)
}

func TestDoubleToggleRestoresState(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	_, err := e.CreateTask(ctx, "Laundry")
	require.NoError(t, err)
	require.NoError(t, e.AddItem(ctx, "Wash"))
	require.NoError(t, e.AddItem(ctx, "Dry"))
	require.NoError(t, e.ToggleItem(ctx, itemByText(t, e, "Wash").ID))

	before := e.Snapshot()
	dry := itemByText(t, e, "Dry").ID
	require.NoError(t, e.ToggleItem(ctx, dry))
	require.NoError(t, e.ToggleItem(ctx, dry))
	after := e.Snapshot()

	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.SelectedTask.Status, after.SelectedTask.Status)
}

func TestItemPositionsAppend(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	_, err := e.CreateTask(ctx, "Packing")
	require.NoError(t, err)
	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, e.AddItem(ctx, text))
	}

	var positions []int
	for _, it := range e.Snapshot().Items {
		positions = append(positions, it.Position)
	}
	assert.Equal(t, []int{0, 1, 2}, positions)

	require.NoError(t, e.DeleteItem(ctx, itemByText(t, e, "b").ID))
	require.NoError(t, e.AddItem(ctx, "d"))

	positions = positions[:0]
	for _, it := range e.Snapshot().Items {
		positions = append(positions, it.Position)
	}
	assert.Equal(t, []int{0, 2, 3}, positions)
}

func TestAddItemIgnoresBlankAndNoSelection(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	require.NoError(t, e.AddItem(ctx, "orphan"))
	assert.Empty(t, e.Snapshot().Items)

	_, err := e.CreateTask(ctx, "Task")
	require.NoError(t, err)
	require.NoError(t, e.AddItem(ctx, "   "))
	assert.Empty(t, e.Snapshot().Items)
}

func TestCreateTaskValidation(t *testing.T) {
	e := newEngine(t)

	_, err := e.CreateTask(context.Background(), "  \t ")
	require.ErrorIs(t, err, engine.ErrValidation)
	assert.Empty(t, e.Snapshot().Tasks)
}

func TestRenameTask(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	id, err := e.CreateTask(ctx, "Draft")
	require.NoError(t, err)

	require.NoError(t, e.RenameTask(ctx, id, "  Final  "))
	assert.Equal(t, "Final", selected(t, e).Name)

	require.NoError(t, e.RenameTask(ctx, id, ""))
	assert.Equal(t, "Final", selected(t, e).Name)

	err = e.RenameTask(ctx, 9999, "ghost")
	var serr *engine.StorageError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRenameComparesAgainstStoredName(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	e := engine.New(s, zaptest.NewLogger(t))
	require.NoError(t, e.Load(ctx))

	id, err := e.CreateTask(ctx, "A")
	require.NoError(t, err)

	// Another writer renames the task behind the engine's back.
	require.NoError(t, s.UpdateTaskName(ctx, id, "B"))

	require.NoError(t, e.RenameTask(ctx, id, "A"))
	task, err := s.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "A", task.Name)
	assert.Equal(t, "A", selected(t, e).Name)
}

func TestAddItemToTargetsTaskWithoutSelecting(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	e := engine.New(s, zaptest.NewLogger(t))
	require.NoError(t, e.Load(ctx))

	other, err := e.CreateTask(ctx, "Other")
	require.NoError(t, err)
	require.NoError(t, e.AddItem(ctx, "done already"))
	require.NoError(t, e.ToggleItem(ctx, itemByText(t, e, "done already").ID))

	current, err := e.CreateTask(ctx, "Current")
	require.NoError(t, err)
	require.Equal(t, current, e.Snapshot().SelectedID)

	require.NoError(t, e.AddItemTo(ctx, other, "  new step  "))

	snap := e.Snapshot()
	assert.Equal(t, current, snap.SelectedID)
	assert.Empty(t, snap.Items)

	items, err := s.ListItems(ctx, other)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "new step", items[1].Text)

	for _, task := range snap.Tasks {
		if task.ID == other {
			assert.Equal(t, model.StatusDoing, task.Status)
			assert.Equal(t, 2, task.ItemCount)
		}
	}

	require.NoError(t, e.AddItemTo(ctx, other, "   "))
	err = e.AddItemTo(ctx, 9999, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteTaskCascadesAndReselects(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	e := engine.New(s, zaptest.NewLogger(t))
	require.NoError(t, e.Load(ctx))

	older, err := e.CreateTask(ctx, "Older")
	require.NoError(t, err)
	require.NoError(t, e.AddItem(ctx, "keep"))

	newer, err := e.CreateTask(ctx, "Newer")
	require.NoError(t, err)
	require.NoError(t, e.AddItem(ctx, "one"))
	require.NoError(t, e.AddItem(ctx, "two"))

	require.NoError(t, e.DeleteTask(ctx, newer))

	items, err := s.ListItems(ctx, newer)
	require.NoError(t, err)
	assert.Empty(t, items)

	snap := e.Snapshot()
	assert.Equal(t, older, snap.SelectedID)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "keep", snap.Items[0].Text)

	require.NoError(t, e.DeleteTask(ctx, older))
	snap = e.Snapshot()
	assert.Zero(t, snap.SelectedID)
	assert.Nil(t, snap.SelectedTask)
	assert.Empty(t, snap.Tasks)
	assert.Empty(t, snap.Items)
}

func TestDeleteUnselectedTaskKeepsSelection(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	first, err := e.CreateTask(ctx, "First")
	require.NoError(t, err)
	second, err := e.CreateTask(ctx, "Second")
	require.NoError(t, err)
	require.NoError(t, e.AddItem(ctx, "x"))

	require.NoError(t, e.DeleteTask(ctx, first))
	snap := e.Snapshot()
	assert.Equal(t, second, snap.SelectedID)
	assert.Len(t, snap.Items, 1)
	assert.Len(t, snap.Tasks, 1)
}

func TestSelectTask(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	a, err := e.CreateTask(ctx, "A")
	require.NoError(t, err)
	require.NoError(t, e.AddItem(ctx, "a1"))
	_, err = e.CreateTask(ctx, "B")
	require.NoError(t, err)
	assert.Empty(t, e.Snapshot().Items)

	require.NoError(t, e.SelectTask(ctx, a))
	snap := e.Snapshot()
	assert.Equal(t, a, snap.SelectedID)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "a1", snap.Items[0].Text)

	require.NoError(t, e.SelectTask(ctx, 4242))
	assert.Nil(t, e.Snapshot().SelectedTask)
}

func TestTasksNewestFirst(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	for _, name := range []string{"one", "two", "three"} {
		_, err := e.CreateTask(ctx, name)
		require.NoError(t, err)
	}

	var names []string
	for _, task := range e.Snapshot().Tasks {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"three", "two", "one"}, names)
}

func TestDeadlineReconciliation(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	e := newEngine(t, engine.WithClock(func() time.Time { return now }))

	id, err := e.CreateTask(ctx, "Report")
	require.NoError(t, err)
	require.NoError(t, e.AddItem(ctx, "outline"))
	require.NoError(t, e.ToggleItem(ctx, itemByText(t, e, "outline").ID))
	require.Equal(t, model.StatusDone, selected(t, e).Status)

	past := now.Add(-48 * time.Hour)
	require.NoError(t, e.SetDeadline(ctx, id, &past))
	task := selected(t, e)
	assert.Equal(t, model.StatusExpired, task.Status)
	assert.Equal(t, model.SourceDeadline, task.StatusSource)
	require.NotNil(t, task.Deadline)
	assert.True(t, task.Deadline.Equal(past))

	future := now.Add(72 * time.Hour)
	require.NoError(t, e.SetDeadline(ctx, id, &future))
	assert.Equal(t, model.StatusTodo, selected(t, e).Status, "expired falls back to todo, not done")

	require.NoError(t, e.SetDeadline(ctx, id, nil))
	task = selected(t, e)
	assert.Nil(t, task.Deadline)
	assert.Equal(t, model.StatusTodo, task.Status)
}

func TestChecklistMutationOverridesExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	e := newEngine(t, engine.WithClock(func() time.Time { return now }))

	id, err := e.CreateTask(ctx, "Taxes")
	require.NoError(t, err)
	past := now.Add(-time.Hour)
	require.NoError(t, e.SetDeadline(ctx, id, &past))
	require.Equal(t, model.StatusExpired, selected(t, e).Status)

	require.NoError(t, e.AddItem(ctx, "forms"))
	task := selected(t, e)
	assert.Equal(t, model.StatusTodo, task.Status)
	assert.Equal(t, model.SourceDerived, task.StatusSource)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	id, err := e.CreateTask(ctx, "Manual")
	require.NoError(t, err)

	require.NoError(t, e.SetStatus(ctx, id, model.StatusDone))
	task := selected(t, e)
	assert.Equal(t, model.StatusDone, task.Status)
	assert.Equal(t, model.SourceManual, task.StatusSource)

	err = e.SetStatus(ctx, id, model.StatusExpired)
	require.ErrorIs(t, err, engine.ErrValidation)
	assert.Equal(t, model.StatusDone, selected(t, e).Status)

	err = e.SetStatus(ctx, id, model.Status("paused"))
	require.ErrorIs(t, err, engine.ErrValidation)

	deadline := time.Now().Add(24 * time.Hour)
	require.NoError(t, e.SetDeadline(ctx, id, &deadline))
	require.NoError(t, e.SetStatus(ctx, id, model.StatusExpired))
	assert.Equal(t, model.StatusExpired, selected(t, e).Status)
}

func TestToggleMissingItem(t *testing.T) {
	e := newEngine(t)

	err := e.ToggleItem(context.Background(), 77)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentTogglesOnOneTask(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	_, err := e.CreateTask(ctx, "Busy")
	require.NoError(t, err)
	for _, text := range []string{"a", "b", "c", "d"} {
		require.NoError(t, e.AddItem(ctx, text))
	}

	var wg sync.WaitGroup
	for _, it := range e.Snapshot().Items {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, e.ToggleItem(ctx, id))
		}(it.ID)
	}
	wg.Wait()

	snap := e.Snapshot()
	assert.Equal(t, model.Progress{Total: 4, Completed: 4}, snap.Progress)
	assert.Equal(t, model.StatusDone, snap.SelectedTask.Status)
}

var errInjected = errors.New("injected failure")

// faultyStore fails the named method and delegates everything else.
type faultyStore struct {
	store.Store
	failOn string
}

func (f *faultyStore) AddItem(ctx context.Context, taskID int64, text string) (int64, error) {
	if f.failOn == "AddItem" {
		return 0, errInjected
	}
	return f.Store.AddItem(ctx, taskID, text)
}

func (f *faultyStore) UpdateTaskStatus(
	ctx context.Context, id int64, status model.Status, source model.StatusSource,
) error {
	if f.failOn == "UpdateTaskStatus" {
		return errInjected
	}
	return f.Store.UpdateTaskStatus(ctx, id, status, source)
}

// WithTx keeps the injected failure active inside the transaction.
func (f *faultyStore) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	return f.Store.WithTx(ctx, func(tx store.Store) error {
		return fn(&faultyStore{Store: tx, failOn: f.failOn})
	})
}

func (f *faultyStore) ListTasks(ctx context.Context) ([]model.Task, error) {
	if f.failOn == "ListTasks" {
		return nil, errInjected
	}
	return f.Store.ListTasks(ctx)
}

func TestFailedWriteLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	base := testutil.NewTestStore(t)
	fs := &faultyStore{Store: base}

	core, logs := observer.New(zapcore.DebugLevel)
	e := engine.New(fs, zap.New(core))
	require.NoError(t, e.Load(ctx))

	id, err := e.CreateTask(ctx, "Fragile")
	require.NoError(t, err)
	before := e.Snapshot()

	fs.failOn = "AddItem"
	err = e.AddItem(ctx, "never")
	var serr *engine.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "add item", serr.Op)
	assert.ErrorIs(t, err, errInjected)

	assert.Equal(t, before, e.Snapshot())
	task, err := base.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusTodo, task.Status)
	items, err := base.ListItems(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, items)

	failures := logs.FilterMessage("operation failed").All()
	require.Len(t, failures, 1)
	fields := failures[0].ContextMap()
	assert.Equal(t, "add item", fields["op"])
	assert.Equal(t, id, fields["task_id"])
	assert.NotEmpty(t, fields["op_id"])
}

func TestFailedStatusWriteRollsBackItemWrites(t *testing.T) {
	ctx := context.Background()
	base := testutil.NewTestStore(t)
	fs := &faultyStore{Store: base}
	e := engine.New(fs, zaptest.NewLogger(t))
	require.NoError(t, e.Load(ctx))

	id, err := e.CreateTask(ctx, "Half")
	require.NoError(t, err)
	require.NoError(t, e.AddItem(ctx, "only"))
	itemID := e.Snapshot().Items[0].ID
	before := e.Snapshot()

	fs.failOn = "UpdateTaskStatus"
	require.ErrorIs(t, e.AddItem(ctx, "rolled back"), errInjected)
	require.ErrorIs(t, e.ToggleItem(ctx, itemID), errInjected)
	require.ErrorIs(t, e.DeleteItem(ctx, itemID), errInjected)
	assert.Equal(t, before, e.Snapshot())

	items, err := base.ListItems(ctx, id)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].Checked)

	task, err := base.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, engine.Derive(items), task.Status)
}

func TestFailedStatusWriteRollsBackDeadline(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	base := testutil.NewTestStore(t)
	fs := &faultyStore{Store: base}
	e := engine.New(fs, zaptest.NewLogger(t), engine.WithClock(func() time.Time { return now }))
	require.NoError(t, e.Load(ctx))

	id, err := e.CreateTask(ctx, "Late")
	require.NoError(t, err)

	fs.failOn = "UpdateTaskStatus"
	past := now.Add(-48 * time.Hour)
	require.ErrorIs(t, e.SetDeadline(ctx, id, &past), errInjected)

	task, err := base.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, task.Deadline)
	assert.Equal(t, model.StatusTodo, task.Status)
	assert.Nil(t, selected(t, e).Deadline)
}

func TestFailedReloadKeepsPreviousTasks(t *testing.T) {
	ctx := context.Background()
	fs := &faultyStore{Store: testutil.NewTestStore(t)}
	e := engine.New(fs, nil)
	require.NoError(t, e.Load(ctx))

	id, err := e.CreateTask(ctx, "Stable")
	require.NoError(t, err)

	fs.failOn = "ListTasks"
	require.Error(t, e.RenameTask(ctx, id, "Changed"))
	assert.Equal(t, "Stable", e.Snapshot().Tasks[0].Name)
}
