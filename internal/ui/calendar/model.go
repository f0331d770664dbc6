// Package calendar implements the month-grid date picker used to set
// task deadlines.
package calendar

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/theme"
)

// GridSize is the number of cells in a month grid: six weeks.
const GridSize = 42

// ExpiryHint warns that deadlines already passed mark the task expired.
const ExpiryHint = "today or an earlier day marks the task expired at once"

// PickedMsg carries the chosen deadline.
type PickedMsg struct {
	Date time.Time
}

// CancelMsg signals the picker was closed without a choice.
type CancelMsg struct{}

// MonthGrid returns the 42 days shown for the month containing month,
// starting on the Sunday on or before the first of the month. Each day is
// midnight in month's location.
func MonthGrid(month time.Time) [GridSize]time.Time {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	start := first.AddDate(0, 0, -int(first.Weekday()))

	var grid [GridSize]time.Time
	for i := range grid {
		grid[i] = start.AddDate(0, 0, i)
	}
	return grid
}

// Midnight returns the start of t's day in t's location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Model is the date picker.
type Model struct {
	keys     *keys.KeyMap
	now      func() time.Time
	cursor   time.Time
	month    time.Time
	selected *time.Time
	width    int
	height   int
}

// New creates a picker. A nil now uses time.Now.
func New(k *keys.KeyMap, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	m := Model{keys: k, now: now}
	m.Open(nil)
	return m
}

// Open resets the picker onto selected (or today when nil).
func (m *Model) Open(selected *time.Time) {
	m.selected = nil
	cursor := m.now().Local()
	if selected != nil {
		s := selected.Local()
		m.selected = &s
		cursor = s
	}
	m.cursor = Midnight(cursor)
	m.month = time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, cursor.Location())
}

// Cursor returns the highlighted day.
func (m Model) Cursor() time.Time { return m.cursor }

// Month returns the first day of the displayed month.
func (m Model) Month() time.Time { return m.month }

// Update handles grid navigation and selection.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return CancelMsg{} }

	case key.Matches(keyMsg, m.keys.Select):
		picked := Midnight(m.cursor)
		return m, func() tea.Msg { return PickedMsg{Date: picked} }

	case key.Matches(keyMsg, m.keys.Today):
		now := m.now()
		return m, func() tea.Msg { return PickedMsg{Date: now} }

	case key.Matches(keyMsg, m.keys.PrevDay):
		m.moveCursor(m.cursor.AddDate(0, 0, -1))
	case key.Matches(keyMsg, m.keys.NextDay):
		m.moveCursor(m.cursor.AddDate(0, 0, 1))
	case key.Matches(keyMsg, m.keys.PrevWeek):
		m.moveCursor(m.cursor.AddDate(0, 0, -7))
	case key.Matches(keyMsg, m.keys.NextWeek):
		m.moveCursor(m.cursor.AddDate(0, 0, 7))
	case key.Matches(keyMsg, m.keys.PrevMonth):
		m.shiftMonth(-1)
	case key.Matches(keyMsg, m.keys.NextMonth):
		m.shiftMonth(1)
	}
	return m, nil
}

func (m *Model) moveCursor(day time.Time) {
	m.cursor = Midnight(day)
	m.month = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
}

// shiftMonth moves the displayed month by delta, keeping the cursor's day
// of month where the target month has it and clamping otherwise.
func (m *Model) shiftMonth(delta int) {
	target := m.month.AddDate(0, delta, 0)
	lastDay := target.AddDate(0, 1, -1).Day()
	day := m.cursor.Day()
	if day > lastDay {
		day = lastDay
	}
	m.month = target
	m.cursor = time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, target.Location())
}

// View renders the month header, weekday labels and six week rows.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("‹ " + m.month.Format("January 2006") + " ›"))
	b.WriteString("\n")

	for _, wd := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		b.WriteString(theme.DayStyle.Foreground(theme.ColorGray).Render(wd))
	}
	b.WriteString("\n")

	today := m.now().Local()
	grid := MonthGrid(m.month)
	for i, day := range grid {
		label := day.Format("2")
		style := theme.DayStyle
		switch {
		case sameDay(day, m.cursor):
			style = theme.CursorDayStyle
		case m.selected != nil && sameDay(day, *m.selected):
			style = theme.SelectedDayStyle
		case sameDay(day, today):
			style = theme.TodayStyle
		case day.Month() != m.month.Month():
			style = theme.DimmedStyle.Width(4).Align(lipgloss.Center)
		}
		b.WriteString(style.Render(label))
		if i%7 == 6 && i < GridSize-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("h/j/k/l move | [ ] month | t today | enter pick | esc cancel"))
	b.WriteString("\n")
	// A picked day means its midnight and t means now, so neither lies
	// ahead of the clock.
	b.WriteString(theme.HelpStyle.Render(ExpiryHint))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
