package tasklist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Name }

// Title returns the task name for the list.
func (i TaskItem) Title() string { return i.Task.Name }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	p := i.Task.Progress()
	if p.Total == 0 {
		return i.Task.Status.Label()
	}
	return fmt.Sprintf("%s | %d/%d", i.Task.Status.Label(), p.Completed, p.Total)
}

// TaskDelegate implements list.ItemDelegate for rendering sidebar rows.
type TaskDelegate struct {
	// width is the row width available inside the sidebar panel.
	width int
}

// Height returns the number of lines each item takes.
func (d TaskDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d TaskDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d TaskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single sidebar row: badge, name, and checklist counts.
func (d TaskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	task := ti.Task

	counts := ""
	if p := task.Progress(); p.Total > 0 {
		counts = fmt.Sprintf("%d/%d", p.Completed, p.Total)
	}
	deadline := ""
	if task.HasDeadline() {
		deadline = " ⏱"
	}

	name := truncate(task.Name, d.width-lipgloss.Width(counts)-8)
	line := fmt.Sprintf("%s %s%s", theme.StatusBadge(task.Status), name, deadline)

	if counts != "" {
		gap := d.width - lipgloss.Width(line) - lipgloss.Width(counts) - 3
		if gap < 1 {
			gap = 1
		}
		line += fmt.Sprintf("%*s%s", gap, "", theme.HelpStyle.Render(counts))
	}

	if task.Status == model.StatusDone {
		line = theme.DimmedStyle.Render(line)
	}

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// truncate shortens s to at most n cells, ending with an ellipsis.
func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
