package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings of the task list.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Single task actions
	Toggle key.Binding
	Open   key.Binding
	Edit   key.Binding
	Delete key.Binding
	New    key.Binding

	// Selection
	Mark           key.Binding
	MarkAll        key.Binding
	ClearSelection key.Binding

	// Bulk actions
	DeleteSelected   key.Binding
	CompleteSelected key.Binding
	ClearCompleted   key.Binding

	// View
	Search      key.Binding
	CycleFilter key.Binding
	CycleSort   key.Binding
	Reverse     key.Binding
	Refresh     key.Binding

	// Session
	Logout key.Binding

	// Detail view
	Back key.Binding

	// Help toggle
	Help key.Binding
	Quit key.Binding
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
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle done"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Mark: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "select"),
		),
		MarkAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		ClearSelection: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear selection"),
		),
		DeleteSelected: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete selected"),
		),
		CompleteSelected: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "complete selected"),
		),
		ClearCompleted: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear completed"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "cycle filter"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle sort"),
		),
		Reverse: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reverse order"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.New, k.Toggle, k.Mark, k.Search, k.CycleFilter, k.Help, k.Quit,
	}
}

// FullHelp returns all keybindings grouped for the help overlay.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.New, k.Edit, k.Toggle, k.Delete},
		{k.Mark, k.MarkAll, k.ClearSelection, k.DeleteSelected, k.CompleteSelected, k.ClearCompleted},
		{k.Search, k.CycleFilter, k.CycleSort, k.Reverse, k.Refresh},
		{k.Logout, k.Help, k.Quit},
	}
}
