package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/planner/internal/engine"
	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui"
	"github.com/nhle/planner/internal/ui/calendar"
	"github.com/nhle/planner/internal/ui/command"
	"github.com/nhle/planner/internal/ui/detail"
	helpview "github.com/nhle/planner/internal/ui/help"
	"github.com/nhle/planner/internal/ui/prompt"
	"github.com/nhle/planner/internal/ui/tasklist"
)

// Engine is the set of intents the TUI drives.
type Engine interface {
	Snapshot() engine.Snapshot
	Load(ctx context.Context) error
	CreateTask(ctx context.Context, name string) (int64, error)
	RenameTask(ctx context.Context, id int64, name string) error
	DeleteTask(ctx context.Context, id int64) error
	SetStatus(ctx context.Context, id int64, status model.Status) error
	SetDeadline(ctx context.Context, id int64, deadline *time.Time) error
	SelectTask(ctx context.Context, id int64) error
	AddItemTo(ctx context.Context, taskID int64, text string) error
	ToggleItem(ctx context.Context, itemID int64) error
	DeleteItem(ctx context.Context, itemID int64) error
}

// snapshotMsg carries engine state after a successful operation.
type snapshotMsg struct {
	snap engine.Snapshot
}

// errMsg reports a failed operation. State is unchanged.
type errMsg struct {
	op  string
	err error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewMain ViewState = iota
	ViewHelp
	ViewCommand
	ViewPrompt
	ViewCalendar
)

// Pane identifies which side of the main view has focus.
type Pane int

const (
	PaneSidebar Pane = iota
	PaneTask
)

// Model is the root Bubble Tea model that manages view routing,
// layout, and dispatch of user intents to the engine.
type Model struct {
	currentView  ViewState
	previousView ViewState
	focus        Pane
	layout       ui.Layout
	engine       Engine
	keys         *keys.KeyMap
	snap         engine.Snapshot
	taskList     tasklist.Model
	detail       detail.Model
	calendar     calendar.Model
	prompt       prompt.Model
	helpView     helpview.Model
	commandView  command.Model
	ready        bool
	errorMessage string
}

// New creates a new root application model over e.
func New(e Engine) Model {
	k := keys.DefaultKeyMap()
	m := Model{
		currentView: ViewMain,
		focus:       PaneSidebar,
		engine:      e,
		keys:        k,
		snap:        e.Snapshot(),
		taskList:    tasklist.New(k, 30, 20),
		detail:      detail.New(k, 50, 20),
		calendar:    calendar.New(k, time.Now),
		prompt:      prompt.New(50, 20),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
	}
	m.applyFocus()
	return m
}

// Init loads the task list.
func (m Model) Init() tea.Cmd {
	return m.run("load", func(ctx context.Context, e Engine) error {
		return e.Load(ctx)
	})
}

// run executes an engine intent off the UI loop and reports the outcome.
func (m Model) run(op string, fn func(ctx context.Context, e Engine) error) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		if err := fn(context.Background(), e); err != nil {
			return errMsg{op: op, err: err}
		}
		return snapshotMsg{snap: e.Snapshot()}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		return m, nil

	case snapshotMsg:
		m.snap = msg.snap
		m.errorMessage = ""
		cmd := m.taskList.SetTasks(msg.snap.Tasks, msg.snap.SelectedID)
		m.detail.SetData(msg.snap.SelectedTask, msg.snap.Items, msg.snap.Progress)
		return m, cmd

	case errMsg:
		m.errorMessage = describeError(msg.op, msg.err)
		return m, nil

	case tasklist.SelectTaskMsg:
		id := msg.TaskID
		return m, m.run("select task", func(ctx context.Context, e Engine) error {
			return e.SelectTask(ctx, id)
		})

	case detail.ToggleItemMsg:
		id := msg.ItemID
		return m, m.run("toggle item", func(ctx context.Context, e Engine) error {
			return e.ToggleItem(ctx, id)
		})

	case detail.DeleteItemMsg:
		id := msg.ItemID
		return m, m.run("delete item", func(ctx context.Context, e Engine) error {
			return e.DeleteItem(ctx, id)
		})

	case prompt.SubmittedMsg:
		m.currentView = ViewMain
		return m, m.submit(msg)

	case prompt.CancelledMsg:
		m.currentView = ViewMain
		return m, nil

	case calendar.PickedMsg:
		m.currentView = ViewMain
		task := m.snap.SelectedTask
		if task == nil {
			return m, nil
		}
		id, date := task.ID, msg.Date
		return m, m.run("set deadline", func(ctx context.Context, e Engine) error {
			return e.SetDeadline(ctx, id, &date)
		})

	case calendar.CancelMsg:
		m.currentView = ViewMain
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		m.commandView.Blur()
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			m.commandView.Blur()
			return m, nil
		}
		return m.updateActiveView(msg)

	case ViewPrompt, ViewCalendar:
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus()

	case key.Matches(msg, m.keys.SwitchPane):
		if m.focus == PaneSidebar {
			m.focus = PaneTask
		} else {
			m.focus = PaneSidebar
		}
		m.applyFocus()
		return m, nil

	case key.Matches(msg, m.keys.NewTask):
		return m.openPrompt(prompt.KindNewTask)

	case key.Matches(msg, m.keys.RenameTask):
		return m.openPrompt(prompt.KindRenameTask)

	case key.Matches(msg, m.keys.DeleteTask):
		return m.openPrompt(prompt.KindDeleteTask)

	case key.Matches(msg, m.keys.AddItem):
		return m.openPrompt(prompt.KindAddItem)

	case key.Matches(msg, m.keys.StatusTodo):
		return m.setStatus(model.StatusTodo)
	case key.Matches(msg, m.keys.StatusDoing):
		return m.setStatus(model.StatusDoing)
	case key.Matches(msg, m.keys.StatusDone):
		return m.setStatus(model.StatusDone)
	case key.Matches(msg, m.keys.StatusExpired):
		return m.setStatus(model.StatusExpired)

	case key.Matches(msg, m.keys.Calendar):
		return m.openCalendar()

	case key.Matches(msg, m.keys.ClearDeadline):
		return m.clearDeadline()
	}

	return m.updateActiveView(msg)
}

// openPrompt starts the form for kind. Everything except creating a task
// needs a selection.
func (m Model) openPrompt(kind prompt.Kind) (tea.Model, tea.Cmd) {
	task := m.snap.SelectedTask
	if kind != prompt.KindNewTask && task == nil {
		m.errorMessage = "no task selected"
		return m, nil
	}

	var cmd tea.Cmd
	switch kind {
	case prompt.KindNewTask:
		cmd = m.prompt.StartInput(kind, "New task", "Task name", "", 0)
	case prompt.KindRenameTask:
		cmd = m.prompt.StartInput(kind, "Rename task", "Task name", task.Name, task.ID)
	case prompt.KindAddItem:
		cmd = m.prompt.StartInput(kind, "Add checklist item", "New item...", "", task.ID)
	case prompt.KindDeleteTask:
		cmd = m.prompt.StartConfirm(task.Name, task.ID)
	}

	m.previousView = m.currentView
	m.currentView = ViewPrompt
	return m, cmd
}

func (m Model) submit(msg prompt.SubmittedMsg) tea.Cmd {
	value, id := msg.Value, msg.TaskID
	switch msg.Kind {
	case prompt.KindNewTask:
		return m.run("create task", func(ctx context.Context, e Engine) error {
			_, err := e.CreateTask(ctx, value)
			return err
		})
	case prompt.KindRenameTask:
		return m.run("rename task", func(ctx context.Context, e Engine) error {
			return e.RenameTask(ctx, id, value)
		})
	case prompt.KindAddItem:
		return m.run("add item", func(ctx context.Context, e Engine) error {
			return e.AddItemTo(ctx, id, value)
		})
	case prompt.KindDeleteTask:
		return m.run("delete task", func(ctx context.Context, e Engine) error {
			return e.DeleteTask(ctx, id)
		})
	}
	return nil
}

func (m Model) setStatus(status model.Status) (tea.Model, tea.Cmd) {
	task := m.snap.SelectedTask
	if task == nil {
		return m, nil
	}
	if status == model.StatusExpired && !task.HasDeadline() {
		m.errorMessage = "expired needs a deadline (c to set one)"
		return m, nil
	}
	id := task.ID
	return m, m.run("set status", func(ctx context.Context, e Engine) error {
		return e.SetStatus(ctx, id, status)
	})
}

func (m Model) openCalendar() (tea.Model, tea.Cmd) {
	task := m.snap.SelectedTask
	if task == nil {
		m.errorMessage = "no task selected"
		return m, nil
	}
	m.calendar.Open(task.Deadline)
	m.previousView = m.currentView
	m.currentView = ViewCalendar
	return m, nil
}

func (m Model) clearDeadline() (tea.Model, tea.Cmd) {
	task := m.snap.SelectedTask
	if task == nil || !task.HasDeadline() {
		return m, nil
	}
	id := task.ID
	return m, m.run("clear deadline", func(ctx context.Context, e Engine) error {
		return e.SetDeadline(ctx, id, nil)
	})
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewMain:
		if m.focus == PaneSidebar {
			m.taskList, cmd = m.taskList.Update(msg)
		} else {
			m.detail, cmd = m.detail.Update(msg)
		}
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewPrompt:
		m.prompt, cmd = m.prompt.Update(msg)
	case ViewCalendar:
		m.calendar, cmd = m.calendar.Update(msg)
	}

	return m, cmd
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "new", "new task":
		return m.openPrompt(prompt.KindNewTask)
	case "rename":
		return m.openPrompt(prompt.KindRenameTask)
	case "delete", "delete task":
		return m.openPrompt(prompt.KindDeleteTask)
	case "add", "add item":
		return m.openPrompt(prompt.KindAddItem)
	case "deadline", "calendar":
		return m.openCalendar()
	case "clear deadline":
		return m.clearDeadline()
	case "reload", "refresh":
		return m, m.run("load", func(ctx context.Context, e Engine) error {
			return e.Load(ctx)
		})
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	case "quit", "q":
		return m, tea.Quit
	}

	if raw, ok := strings.CutPrefix(cmd, "status "); ok {
		status, err := model.ParseStatus(strings.TrimSpace(raw))
		if err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		return m.setStatus(status)
	}

	m.errorMessage = fmt.Sprintf("unknown command %q", cmd)
	return m, nil
}

func (m *Model) applyFocus() {
	m.taskList.SetFocused(m.focus == PaneSidebar)
	m.detail.SetFocused(m.focus == PaneTask)
}

func (m *Model) resize() {
	h := m.layout.ContentHeight()
	sw := m.layout.SidebarWidth()
	mw := m.layout.MainWidth()

	// Panels draw a border and one column of padding on each side.
	m.taskList.SetSize(max(sw-4, 0), max(h-2, 0))
	m.detail.SetSize(max(mw-4, 0), max(h-2, 0))
	m.prompt.SetSize(max(mw-4, 0), max(h-2, 0))
	m.calendar.SetSize(max(mw-4, 0), max(h-2, 0))
	m.helpView.SetSize(m.layout.ContentWidth(), h)
	m.commandView.SetSize(m.layout.ContentWidth(), h)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Planner", m.summary())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.Frame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	}

	h := max(m.layout.ContentHeight()-2, 0)
	sidebarStyle, mainStyle := theme.PanelStyle, theme.PanelStyle
	if m.focus == PaneSidebar {
		sidebarStyle = theme.FocusedPanelStyle
	} else {
		mainStyle = theme.FocusedPanelStyle
	}

	var main string
	switch m.currentView {
	case ViewPrompt:
		main = m.prompt.View()
		mainStyle = theme.FocusedPanelStyle
	case ViewCalendar:
		main = m.calendar.View()
		mainStyle = theme.FocusedPanelStyle
	default:
		main = m.detail.View()
	}

	sidebar := sidebarStyle.
		Width(max(m.layout.SidebarWidth()-2, 0)).
		Height(h).
		Render(m.taskList.View())
	right := mainStyle.
		Width(max(m.layout.MainWidth()-2, 0)).
		Height(h).
		Render(main)

	return m.layout.RenderPanes(sidebar, right)
}

// summary returns the header's right-hand task counts.
func (m Model) summary() string {
	counts := make(map[model.Status]int)
	for _, t := range m.snap.Tasks {
		counts[t.Status]++
	}
	parts := []string{fmt.Sprintf("%d tasks", len(m.snap.Tasks))}
	for _, s := range model.AllStatuses {
		if counts[s] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[s], strings.ToLower(s.Label())))
		}
	}
	return strings.Join(parts, " · ")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.errorMessage != "" {
		return theme.ErrorStyle.Render(m.errorMessage)
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewPrompt:
		return "enter submit | esc cancel"
	case ViewCalendar:
		return "enter pick | t today | esc cancel"
	}

	if m.focus == PaneTask {
		return "space toggle | d delete item | a add | 1-4 status | c deadline | tab sidebar"
	}
	return "q quit | ? help | n new | e rename | D delete | a add item | tab checklist"
}

// describeError turns an engine failure into a status bar message.
func describeError(op string, err error) string {
	if errors.Is(err, engine.ErrValidation) {
		return err.Error()
	}
	return fmt.Sprintf("%s failed: %v", op, err)
}
