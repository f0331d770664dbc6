package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/theme"
)

// section is a titled group of bindings.
type section struct {
	title    string
	bindings []key.Binding
}

// Model is the help overlay view.
type Model struct {
	sections []section
	help     help.Model
	width    int
	height   int
}

// New creates a help overlay listing the bindings of k.
func New(k *keys.KeyMap, width, height int) Model {
	groups := k.FullHelp()
	titles := []string{"General", "Tasks", "Status", "Deadline & checklist", "Calendar"}

	sections := make([]section, 0, len(groups))
	for i, g := range groups {
		title := ""
		if i < len(titles) {
			title = titles[i]
		}
		sections = append(sections, section{title: title, bindings: g})
	}

	m := Model{sections: sections, help: help.New()}
	m.SetSize(width, height)
	return m
}

// Update is a no-op; the root model closes the overlay.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders each section as a title over a single help row.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range m.sections {
		b.WriteString("\n")
		b.WriteString(theme.DimmedStyle.Render(s.title))
		b.WriteString("\n")
		b.WriteString(m.help.ShortHelpView(s.bindings))
		b.WriteString("\n")
	}

	notes := theme.HelpStyle.Render(
		"Checklist changes re-derive the status. A deadline of today or\n" +
			"earlier marks the task expired; 4 is only offered once a deadline exists.",
	)

	content := lipgloss.JoinVertical(lipgloss.Left, b.String(), notes)
	return theme.PanelStyle.
		Width(max(m.width-2, 0)).
		Height(max(m.height-2, 0)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = max(width-4, 0)
}
