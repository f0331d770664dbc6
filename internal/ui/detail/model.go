package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
)

// ToggleItemMsg asks the parent to flip an item.
type ToggleItemMsg struct {
	ItemID int64
}

// DeleteItemMsg asks the parent to remove an item.
type DeleteItemMsg struct {
	ItemID int64
}

// Model is the task view: header, status selector, deadline, progress
// and the checklist of the selected task.
type Model struct {
	task     *model.Task
	items    []model.ChecklistItem
	progress model.Progress
	cursor   int
	focused  bool
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
}

// New creates a new task view model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// SetData replaces the displayed task. The cursor stays on the same row
// index, clamped to the new list.
func (m *Model) SetData(task *model.Task, items []model.ChecklistItem, progress model.Progress) {
	if task == nil || m.task == nil || m.task.ID != task.ID {
		m.cursor = 0
	}
	m.task = task
	m.items = items
	m.progress = progress
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Task returns the displayed task, or nil.
func (m Model) Task() *model.Task { return m.task }

// SelectedItem returns the checklist row under the cursor.
func (m Model) SelectedItem() (model.ChecklistItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return model.ChecklistItem{}, false
	}
	return m.items[m.cursor], true
}

// SetFocused marks whether the task view owns keyboard focus.
func (m *Model) SetFocused(focused bool) { m.focused = focused }

// Update handles checklist navigation and item actions.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.task == nil {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.ToggleItem):
		if item, ok := m.SelectedItem(); ok {
			return m, func() tea.Msg { return ToggleItemMsg{ItemID: item.ID} }
		}
	case key.Matches(keyMsg, m.keys.DeleteItem):
		if item, ok := m.SelectedItem(); ok {
			return m, func() tea.Msg { return DeleteItemMsg{ItemID: item.ID} }
		}
	}
	return m, nil
}

// View renders the task view.
func (m Model) View() string {
	if m.task == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("Select a task in the sidebar\nor press n to create one.")
	}

	task := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Name))
	sections = append(sections, m.renderStatusSelector())
	sections = append(sections, m.renderDeadline())
	sections = append(sections, "")

	if m.progress.Total > 0 {
		sections = append(sections,
			theme.ProgressBar(m.progress, m.barWidth()),
			theme.HelpStyle.Render(fmt.Sprintf("%d/%d completed", m.progress.Completed, m.progress.Total)),
			"",
		)
	}

	sections = append(sections, m.renderChecklist())

	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(
		strings.Join(sections, "\n"),
	)
}

// renderStatusSelector lists the selectable statuses with their keys,
// highlighting the current one.
func (m Model) renderStatusSelector() string {
	var parts []string
	for i, s := range m.task.SelectableStatuses() {
		label := fmt.Sprintf("%d %s", i+1, s.Label())
		if s == m.task.Status {
			parts = append(parts, theme.StatusStyle(s).Reverse(true).Render(label))
		} else {
			parts = append(parts, theme.DimmedStyle.Padding(0, 1).Render(label))
		}
	}
	if m.task.Status == model.StatusExpired && !m.task.HasDeadline() {
		parts = append(parts, theme.StatusStyle(model.StatusExpired).Reverse(true).Render("Expired"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderDeadline() string {
	label := lipgloss.NewStyle().Foreground(theme.ColorGray).Render("Deadline: ")
	if !m.task.HasDeadline() {
		return label + theme.HelpStyle.Render("none (c to set)")
	}
	d := m.task.Deadline.Local().Format("Mon, 02 Jan 2006")
	if m.task.IsPastDeadline(m.now()) {
		return label + theme.OverdueStyle.Render(d+" (passed)")
	}
	return label + theme.DeadlineStyle.Render(d)
}

func (m Model) renderChecklist() string {
	if len(m.items) == 0 {
		return theme.HelpStyle.Render("No checklist items. Press a to add one.")
	}

	var b strings.Builder
	for i, item := range m.items {
		box := "[ ]"
		if item.Checked {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, item.Text)
		if item.Checked {
			line = theme.DimmedStyle.Strikethrough(true).Render(line)
		}

		if m.focused && i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		if i < len(m.items)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) barWidth() int {
	w := m.width - 8
	if w > 40 {
		w = 40
	}
	return w
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
