package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/theme"
)

// Sidebar width bounds, in cells.
const (
	minSidebarWidth = 24
	maxSidebarWidth = 40
)

// Layout splits the terminal into a one-line header, a sidebar and a
// task pane, and a one-line status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int { return l.Width }

// ContentHeight returns the rows between the header and the status bar.
func (l Layout) ContentHeight() int { return max(l.Height-2, 0) }

// SidebarWidth is a third of the width, clamped to the sidebar bounds
// and never wider than the terminal.
func (l Layout) SidebarWidth() int {
	w := min(max(l.Width/3, minSidebarWidth), maxSidebarWidth)
	return min(w, l.Width)
}

// MainWidth returns the width left for the task pane.
func (l Layout) MainWidth() int { return max(l.Width-l.SidebarWidth(), 0) }

// RenderHeader renders the title on the left and summary on the right.
func (l Layout) RenderHeader(title, summary string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Render(summary)
	return bar(theme.HeaderStyle, l.Width, left, right)
}

// RenderStatusBar renders the key hints across the bottom row.
func (l Layout) RenderStatusBar(hints string) string {
	return bar(theme.StatusBarStyle, l.Width, theme.StatusBarStyle.Render(hints), "")
}

// RenderPanes joins the sidebar and the task pane side by side.
func (l Layout) RenderPanes(sidebar, main string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
}

// Frame stacks header, content and status bar.
func (l Layout) Frame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// bar fills the gap between left and right with the style's background
// so the row spans width cells.
func bar(style lipgloss.Style, width int, left, right string) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}
