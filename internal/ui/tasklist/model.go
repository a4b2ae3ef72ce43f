package tasklist

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Deepanshu954/TodoFlow/internal/keys"
	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/service"
	"github.com/Deepanshu954/TodoFlow/internal/theme"
)

// opTimeout bounds a single facade call made from the list.
const opTimeout = 30 * time.Second

// Service is the part of the task facade the list drives.
type Service interface {
	Snapshot() service.Snapshot
	Refresh(ctx context.Context) error
	Toggle(ctx context.Context, id string) (model.Task, error)
	Delete(ctx context.Context, id string) error
	BulkSelected(ctx context.Context, action model.BulkAction) error
	ClearCompleted(ctx context.Context) error
	SetFilter(ctx context.Context, f model.StatusFilter) error
	SetSearch(ctx context.Context, text string) error
	SetSort(ctx context.Context, key model.SortKey, dir model.SortDir) error
	ToggleSelect(id string)
	SelectAll()
	ClearSelection()
}

// SnapshotMsg carries the facade state after an operation finished.
type SnapshotMsg struct {
	Snapshot service.Snapshot
}

// NewTaskMsg asks for the creation form.
type NewTaskMsg struct{}

// OpenTaskMsg asks for the detail view of Task.
type OpenTaskMsg struct {
	Task model.Task
}

// EditTaskMsg asks for the edit form of Task.
type EditTaskMsg struct {
	Task model.Task
}

// Model is the task list view component.
type Model struct {
	list        list.Model
	svc         Service
	keys        *keys.KeyMap
	snap        service.Snapshot
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model.
func New(svc Service, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-1)
	l.Title = "Tasks"
	l.SetShowTitle(false)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search title or description..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		svc:         svc,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that reloads the current view.
func (m Model) Init() tea.Cmd {
	return m.run(func(ctx context.Context) { _ = m.svc.Refresh(ctx) })
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		return m, m.apply(msg.Snapshot)

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// apply replaces the rows with the tasks of snap, keeping the cursor on
// the same task when it is still visible.
func (m *Model) apply(snap service.Snapshot) tea.Cmd {
	var focusedID string
	if it, ok := m.list.SelectedItem().(TaskItem); ok {
		focusedID = it.Task.ID
	}

	m.snap = snap
	items := make([]list.Item, len(snap.Tasks))
	focus := -1
	for i, t := range snap.Tasks {
		items[i] = TaskItem{Task: t, Selected: snap.IsSelected(t.ID)}
		if t.ID == focusedID {
			focus = i
		}
	}
	cmd := m.list.SetItems(items)
	if focus >= 0 {
		m.list.Select(focus)
	}
	return cmd
}

// handleSearchKeys processes key input while the search box has focus.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		text := m.searchInput.Value()
		return m, m.run(func(ctx context.Context) { _ = m.svc.SetSearch(ctx, text) })

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		return m, m.run(func(ctx context.Context) { _ = m.svc.SetSearch(ctx, "") })
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	svc := m.svc
	focused, hasFocus := m.Focused()

	switch {
	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg { return NewTaskMsg{} }

	case key.Matches(msg, m.keys.Open):
		if !hasFocus {
			return m, nil
		}
		return m, func() tea.Msg { return OpenTaskMsg{Task: focused} }

	case key.Matches(msg, m.keys.Edit):
		if !hasFocus {
			return m, nil
		}
		return m, func() tea.Msg { return EditTaskMsg{Task: focused} }

	case key.Matches(msg, m.keys.Toggle):
		if !hasFocus {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) { _, _ = svc.Toggle(ctx, focused.ID) })

	case key.Matches(msg, m.keys.Delete):
		if !hasFocus {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) { _ = svc.Delete(ctx, focused.ID) })

	case key.Matches(msg, m.keys.Mark):
		if !hasFocus {
			return m, nil
		}
		svc.ToggleSelect(focused.ID)
		return m, m.apply(svc.Snapshot())

	case key.Matches(msg, m.keys.MarkAll):
		svc.SelectAll()
		return m, m.apply(svc.Snapshot())

	case key.Matches(msg, m.keys.ClearSelection):
		svc.ClearSelection()
		return m, m.apply(svc.Snapshot())

	case key.Matches(msg, m.keys.DeleteSelected):
		return m, m.run(func(ctx context.Context) { _ = svc.BulkSelected(ctx, model.BulkDelete) })

	case key.Matches(msg, m.keys.CompleteSelected):
		return m, m.run(func(ctx context.Context) { _ = svc.BulkSelected(ctx, model.BulkComplete) })

	case key.Matches(msg, m.keys.ClearCompleted):
		return m, m.run(func(ctx context.Context) { _ = svc.ClearCompleted(ctx) })

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.snap.Query.Search)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleFilter):
		next := cycle(model.StatusFilters, m.snap.Query.Status)
		return m, m.run(func(ctx context.Context) { _ = svc.SetFilter(ctx, next) })

	case key.Matches(msg, m.keys.CycleSort):
		next := cycle(model.SortKeys, m.snap.Query.Sort)
		dir := m.snap.Query.Dir
		return m, m.run(func(ctx context.Context) { _ = svc.SetSort(ctx, next, dir) })

	case key.Matches(msg, m.keys.Reverse):
		q := m.snap.Query
		dir := model.SortAsc
		if q.Dir == model.SortAsc {
			dir = model.SortDesc
		}
		return m, m.run(func(ctx context.Context) { _ = svc.SetSort(ctx, q.Sort, dir) })

	case key.Matches(msg, m.keys.Refresh):
		return m, m.run(func(ctx context.Context) { _ = svc.Refresh(ctx) })
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// run performs op off the UI goroutine and reports the resulting state.
// Failures reach the user through the facade's notifier.
func (m Model) run(op func(ctx context.Context)) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		op(ctx)
		return SnapshotMsg{Snapshot: svc.Snapshot()}
	}
}

// cycle returns the value after cur in values, wrapping around.
func cycle[T comparable](values []T, cur T) T {
	i := slices.Index(values, cur)
	return values[(i+1)%len(values)]
}

// Focused returns the task under the cursor.
func (m Model) Focused() (model.Task, bool) {
	it, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return it.Task, true
}

// Searching reports whether the search box has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// QuerySummary describes the active filter, sort and search.
func (m Model) QuerySummary() string {
	q := m.snap.Query
	arrow := "↓"
	if q.Dir == model.SortAsc {
		arrow = "↑"
	}
	parts := []string{
		"filter: " + string(q.Status),
		fmt.Sprintf("sort: %s %s", q.Sort, arrow),
	}
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("search: %q", q.Search))
	}
	if n := len(m.snap.Selected); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	return strings.Join(parts, " · ")
}

// View renders the task list view.
func (m Model) View() string {
	var top string
	if m.searchMode {
		top = lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
	} else {
		top = theme.HelpStyle.Padding(0, 1).Render(m.QuerySummary())
	}

	if len(m.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, top, m.renderEmptyState())
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, m.list.View())
}

// renderEmptyState shows guidance text when no tasks are visible.
func (m Model) renderEmptyState() string {
	q := m.snap.Query
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-1).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case !m.snap.Loaded:
		return style.Render("Loading tasks...")
	case q.Status != model.StatusAll || q.Search != "" || q.CategoryID != "" || q.Priority != "":
		return style.Render("No matching tasks.\nPress f to change the filter or / to search again.")
	default:
		return style.Render("No tasks yet.\n\nPress n to add one.")
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-1)
	m.searchInput.Width = width - 4
}
