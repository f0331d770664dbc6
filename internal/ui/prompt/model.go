// Package prompt hosts the small huh forms the planner opens over the
// task view: task name, item text, and delete confirmation.
package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Kind identifies what a submitted value is for.
type Kind int

const (
	KindNewTask Kind = iota
	KindRenameTask
	KindAddItem
	KindDeleteTask
)

// SubmittedMsg is dispatched when the user confirms a prompt. Value is
// trimmed; for KindDeleteTask it is empty.
type SubmittedMsg struct {
	Kind   Kind
	TaskID int64
	Value  string
}

// CancelledMsg is dispatched when the user aborts or declines.
type CancelledMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	value   string
	confirm bool
}

// Model is the active prompt.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	kind   Kind
	taskID int64
	width  int
	height int
}

// New creates an idle prompt.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartInput opens a single-line input. Blank input is rejected by the
// form itself except for KindRenameTask, where the engine ignores it.
func (m *Model) StartInput(kind Kind, title, placeholder, initial string, taskID int64) tea.Cmd {
	m.kind = kind
	m.taskID = taskID
	m.fb.value = initial
	m.fb.confirm = false

	input := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&m.fb.value)
	if kind != KindRenameTask {
		input = input.Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("a value is required")
			}
			return nil
		})
	}

	m.form = m.newForm(huh.NewGroup(input))
	return m.form.Init()
}

// StartConfirm opens a yes/no confirmation for deleting a task.
func (m *Model) StartConfirm(name string, taskID int64) tea.Cmd {
	m.kind = KindDeleteTask
	m.taskID = taskID
	m.fb.value = ""
	m.fb.confirm = false

	m.form = m.newForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Delete task %q?", name)).
			Description("Its checklist items are deleted with it.").
			Affirmative("Yes, delete").
			Negative("Cancel").
			Value(&m.fb.confirm),
	))
	return m.form.Init()
}

func (m Model) newForm(group *huh.Group) *huh.Form {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"))
	return huh.NewForm(group).
		WithKeyMap(km).
		WithShowHelp(false).
		WithWidth(m.formWidth())
}

// Active reports whether a form is open.
func (m Model) Active() bool {
	return m.form != nil
}

// Update handles messages for the prompt.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		if m.kind == KindDeleteTask && !m.fb.confirm {
			return m, cancelled
		}
		out := SubmittedMsg{Kind: m.kind, TaskID: m.taskID, Value: strings.TrimSpace(m.fb.value)}
		return m, func() tea.Msg { return out }
	case huh.StateAborted:
		m.form = nil
		return m, cancelled
	}
	return m, cmd
}

func cancelled() tea.Msg { return CancelledMsg{} }

// View renders the prompt.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 30 {
		w = 30
	}
	if w > 80 {
		w = 80
	}
	return w
}
