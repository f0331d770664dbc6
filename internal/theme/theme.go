package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps an unfocused pane.
var PanelStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// FocusedPanelStyle wraps the pane that owns keyboard focus.
var FocusedPanelStyle = PanelStyle.
	BorderForeground(ColorBlue)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// TitleStyle is used for pane titles.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders checked items and out-of-month calendar days.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Faint(true)

// ErrorStyle renders the last operation failure in the status bar.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// DeadlineStyle renders a deadline that has not passed; OverdueStyle one
// that has.
var (
	DeadlineStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	OverdueStyle  = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
)

// Calendar cell styles.
var (
	DayStyle         = lipgloss.NewStyle().Width(4).Align(lipgloss.Center)
	TodayStyle       = DayStyle.Underline(true).Foreground(ColorGreen)
	CursorDayStyle   = DayStyle.Bold(true).Foreground(ColorWhite).Background(ColorBlue)
	SelectedDayStyle = DayStyle.Bold(true).Foreground(ColorYellow)
)

func statusColor(s model.Status) lipgloss.AdaptiveColor {
	switch s {
	case model.StatusTodo:
		return ColorBlue
	case model.StatusDoing:
		return ColorYellow
	case model.StatusDone:
		return ColorGreen
	case model.StatusExpired:
		return ColorRed
	default:
		return ColorGray
	}
}

// StatusStyle returns a color-coded style for the given task status.
func StatusStyle(s model.Status) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(statusColor(s))
}

// StatusBadge returns a one-cell colored marker for the sidebar.
func StatusBadge(s model.Status) string {
	glyph := "○"
	switch s {
	case model.StatusDoing:
		glyph = "◐"
	case model.StatusDone:
		glyph = "●"
	case model.StatusExpired:
		glyph = "✕"
	}
	return lipgloss.NewStyle().Foreground(statusColor(s)).Render(glyph)
}

// ProgressBar renders a bar of the given width followed by the percentage.
func ProgressBar(p model.Progress, width int) string {
	if width < 4 {
		width = 4
	}
	filled := 0
	if p.Total > 0 {
		filled = width * p.Completed / p.Total
	}

	bar := lipgloss.NewStyle().Foreground(ColorGreen).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(ColorSubtle).Render(strings.Repeat("░", width-filled))

	return fmt.Sprintf("%s %3d%%", bar, p.Percent())
}
