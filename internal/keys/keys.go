package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down       key.Binding
	Up         key.Binding
	SwitchPane key.Binding
	Select     key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Tasks
	NewTask    key.Binding
	RenameTask key.Binding
	DeleteTask key.Binding

	// Status selector
	StatusTodo    key.Binding
	StatusDoing   key.Binding
	StatusDone    key.Binding
	StatusExpired key.Binding

	// Deadline
	Calendar      key.Binding
	ClearDeadline key.Binding

	// Checklist
	AddItem    key.Binding
	ToggleItem key.Binding
	DeleteItem key.Binding

	// Calendar navigation
	PrevDay   key.Binding
	NextDay   key.Binding
	PrevWeek  key.Binding
	NextWeek  key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding
	Today     key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		SwitchPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		NewTask: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		RenameTask: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "rename task"),
		),
		DeleteTask: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete task"),
		),
		StatusTodo: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "to do"),
		),
		StatusDoing: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "doing"),
		),
		StatusDone: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "done"),
		),
		StatusExpired: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "expired"),
		),
		Calendar: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "set deadline"),
		),
		ClearDeadline: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear deadline"),
		),
		AddItem: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add item"),
		),
		ToggleItem: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle item"),
		),
		DeleteItem: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete item"),
		),
		PrevDay: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous day"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next day"),
		),
		PrevWeek: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous week"),
		),
		NextWeek: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next week"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("[", "pgup"),
			key.WithHelp("[", "previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("]", "pgdown"),
			key.WithHelp("]", "next month"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.NewTask, k.AddItem, k.ToggleItem, k.SwitchPane,
		k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.SwitchPane, k.Back, k.Quit},
		{k.NewTask, k.RenameTask, k.DeleteTask, k.Command, k.Help},
		{k.StatusTodo, k.StatusDoing, k.StatusDone, k.StatusExpired},
		{k.Calendar, k.ClearDeadline, k.AddItem, k.ToggleItem, k.DeleteItem},
		{k.PrevDay, k.NextDay, k.PrevMonth, k.NextMonth, k.Today},
	}
}
