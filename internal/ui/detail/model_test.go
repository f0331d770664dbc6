package detail

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T) Model {
	t.Helper()
	m := New(keys.DefaultKeyMap(), 60, 20)
	task := &model.Task{ID: 7, Name: "Groceries", Status: model.StatusDoing}
	items := []model.ChecklistItem{
		{ID: 1, TaskID: 7, Text: "Milk", Checked: true, Position: 0},
		{ID: 2, TaskID: 7, Text: "Eggs", Position: 1},
	}
	m.SetData(task, items, model.ProgressOf(items))
	return m
}

func TestViewShowsTask(t *testing.T) {
	m := loaded(t)
	view := m.View()
	assert.Contains(t, view, "Groceries")
	assert.Contains(t, view, "Milk")
	assert.Contains(t, view, "Eggs")
	assert.Contains(t, view, "50%")
}

func TestToggleAndDeleteTargetCursor(t *testing.T) {
	m := loaded(t)
	m, _ = m.Update(runes("j"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.NotNil(t, cmd)
	assert.Equal(t, ToggleItemMsg{ItemID: 2}, cmd())

	_, cmd = m.Update(runes("d"))
	require.NotNil(t, cmd)
	assert.Equal(t, DeleteItemMsg{ItemID: 2}, cmd())
}

func TestSetDataClampsCursor(t *testing.T) {
	m := loaded(t)
	m, _ = m.Update(runes("j"))

	task := m.Task()
	m.SetData(task, []model.ChecklistItem{{ID: 1, TaskID: 7, Text: "Milk"}}, model.Progress{Total: 1})
	item, ok := m.SelectedItem()
	require.True(t, ok)
	assert.Equal(t, int64(1), item.ID)

	m.SetData(&model.Task{ID: 8, Name: "Other"}, nil, model.Progress{})
	_, ok = m.SelectedItem()
	assert.False(t, ok)
}

func TestDeadlineShowsExpiredOption(t *testing.T) {
	m := loaded(t)
	assert.NotContains(t, m.View(), model.StatusExpired.Label())

	due := time.Now().Add(48 * time.Hour)
	task := *m.Task()
	task.Deadline = &due
	m.SetData(&task, nil, model.Progress{})
	assert.Contains(t, m.View(), model.StatusExpired.Label())
}

func TestNoTask(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 60, 20)
	_, cmd := m.Update(runes("d"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Select a task")
}
