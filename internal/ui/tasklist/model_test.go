package tasklist

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: 3, Name: "Newest", Status: model.StatusTodo},
		{ID: 2, Name: "Middle", Status: model.StatusDoing, ItemCount: 2, CheckedCount: 1},
		{ID: 1, Name: "Oldest", Status: model.StatusDone},
	}
}

func TestSetTasksPlacesCursorOnSelection(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 30, 10)
	m.SetTasks(sampleTasks(), 2)

	id, ok := m.SelectedTaskID()
	require.True(t, ok)
	assert.Equal(t, int64(2), id)
	assert.Equal(t, 3, m.Len())
	assert.Contains(t, m.View(), "Middle")
}

func TestMovingSelectsTask(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 30, 10)
	m.SetTasks(sampleTasks(), 3)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	require.NotNil(t, cmd)

	var got []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			if c != nil {
				got = append(got, c())
			}
		}
	default:
		got = append(got, msg)
	}
	assert.Contains(t, got, SelectTaskMsg{TaskID: 2})

	id, _ := m.SelectedTaskID()
	assert.Equal(t, int64(2), id)
}

func TestMovingPastEndEmitsNothing(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 30, 10)
	m.SetTasks(sampleTasks(), 1)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	if cmd != nil {
		assert.NotEqual(t, SelectTaskMsg{TaskID: 1}, cmd())
	}
}

func TestEmptyState(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 30, 10)
	assert.Contains(t, m.View(), "No tasks yet")

	_, ok := m.SelectedTaskID()
	assert.False(t, ok)
}
