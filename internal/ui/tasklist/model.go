package tasklist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
)

// SelectTaskMsg asks the parent to make TaskID the selected task.
type SelectTaskMsg struct {
	TaskID int64
}

// Model is the sidebar listing every task, newest first.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	focused bool
	width   int
	height  int
}

// New creates a new sidebar model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, TaskDelegate{width: width}, width, height)
	l.Title = "Tasks"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:    l,
		keys:    k,
		focused: true,
		width:   width,
		height:  height,
	}
}

// SetTasks replaces the rows and moves the cursor onto selectedID.
func (m *Model) SetTasks(tasks []model.Task, selectedID int64) tea.Cmd {
	items := make([]list.Item, len(tasks))
	cursor := 0
	for i, task := range tasks {
		items[i] = TaskItem{Task: task}
		if task.ID == selectedID {
			cursor = i
		}
	}
	cmd := m.list.SetItems(items)
	m.list.Select(cursor)
	return cmd
}

// SelectedTaskID returns the task under the cursor.
func (m Model) SelectedTaskID() (int64, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return 0, false
	}
	return item.Task.ID, true
}

// Len returns the number of rows.
func (m Model) Len() int { return len(m.list.Items()) }

// SetFocused marks whether the sidebar owns keyboard focus.
func (m *Model) SetFocused(focused bool) { m.focused = focused }

// Focused reports whether the sidebar owns keyboard focus.
func (m Model) Focused() bool { return m.focused }

// Update moves the cursor. Moving onto another task selects it.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up), key.Matches(keyMsg, m.keys.Down):
		before, _ := m.SelectedTaskID()
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		after, ok := m.SelectedTaskID()
		if ok && after != before {
			return m, tea.Batch(cmd, selectCmd(after))
		}
		return m, cmd

	case key.Matches(keyMsg, m.keys.Select):
		if id, ok := m.SelectedTaskID(); ok {
			return m, selectCmd(id)
		}
	}
	return m, nil
}

func selectCmd(id int64) tea.Cmd {
	return func() tea.Msg { return SelectTaskMsg{TaskID: id} }
}

// View renders the sidebar.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when no tasks exist.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	return style.Render("No tasks yet.\n\nPress n to create one.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetDelegate(TaskDelegate{width: width})
	m.list.SetSize(width, height)
}
