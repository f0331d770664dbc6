package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/theme"
)

// CommandMsg carries the normalized text of an executed command.
type CommandMsg string

// Commands lists the palette entries offered as completions.
var Commands = []string{
	"new",
	"rename",
	"delete",
	"add",
	"deadline",
	"clear deadline",
	"status todo",
	"status doing",
	"status done",
	"status expired",
	"reload",
	"help",
	"quit",
}

// Model is the command palette: a text input with tab completion and a
// live list of matching commands.
type Model struct {
	input textinput.Model
	width int
}

// New creates a command palette of the given width.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Commands)

	m := Model{input: ti}
	m.SetSize(width, height)
	return m
}

// Update emits a CommandMsg on enter and forwards everything else to
// the input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		line := normalize(m.input.Value())
		m.input.Reset()
		if line == "" {
			return m, nil
		}
		return m, func() tea.Msg { return CommandMsg(line) }
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Matches returns the commands starting with the current input, or all
// of them while the input is empty.
func (m Model) Matches() []string {
	prefix := normalize(m.input.Value())
	if prefix == "" {
		return Commands
	}
	var out []string
	for _, c := range Commands {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// View renders the command palette.
func (m Model) View() string {
	hint := "no matching command"
	if matches := m.Matches(); len(matches) > 0 {
		hint = strings.Join(matches, " · ")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.TitleStyle.Render("Command Palette"),
		m.input.View(),
		"",
		theme.HelpStyle.Render(hint),
	)
	return theme.PanelStyle.Width(max(m.width-2, 0)).Render(content)
}

// SetSize updates the palette width. The height is unused.
func (m *Model) SetSize(width, _ int) {
	m.width = width
	m.input.Width = max(width-6, 0)
}

// Focus clears the input and gives it keyboard focus.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}

// Blur releases keyboard focus.
func (m *Model) Blur() {
	m.input.Blur()
}

// normalize collapses runs of whitespace and lowercases the line.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
