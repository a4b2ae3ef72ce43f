package detail

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Deepanshu954/TodoFlow/internal/keys"
	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/theme"
	"github.com/Deepanshu954/TodoFlow/internal/ui/tasklist"
)

const timeLayout = "2006-01-02 15:04"

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	viewport viewport.Model
	keys     *keys.KeyMap
	now      func() time.Time
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		now:      time.Now,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Edit):
			if m.task != nil {
				t := *m.task
				return m, func() tea.Msg { return tasklist.EditTaskMsg{Task: t} }
			}
			return m, nil
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No task selected")
	}
	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	t := m.task
	now := m.now()
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	if t.Completed {
		titleStyle = theme.DimmedStyle.Bold(true)
	}
	sections = append(sections, titleStyle.Render(t.Title))

	status := lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("ACTIVE")
	switch {
	case t.Completed:
		status = lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("DONE")
	case t.IsOverdue(now):
		status = theme.OverdueStyle.Render("OVERDUE")
	}
	badges := []string{status, theme.PriorityStyle(t.Priority).Render(strings.ToUpper(string(t.Priority)))}
	if t.Category != nil {
		badges = append(badges, theme.CategoryStyle(t.Category.Color).Render("@"+t.Category.Name))
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(11)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	field := func(label, value string) {
		if value != "" {
			sections = append(sections, metaStyle.Render(label+":")+valStyle.Render(value))
		}
	}

	field("Due", formatTime(t.DueAt))
	field("Reminder", formatTime(t.RemindAt))
	if t.Recurrence != model.RecurrenceNone {
		field("Repeats", string(t.Recurrence))
	}
	if len(t.Tags) > 0 {
		tags := make([]string, len(t.Tags))
		for i, tag := range t.Tags {
			tags[i] = theme.TagStyle.Render("#" + tag)
		}
		sections = append(sections, metaStyle.Render("Tags:")+strings.Join(tags, " "))
	}
	if !t.CreatedAt.IsZero() {
		field("Created", t.CreatedAt.Local().Format(timeLayout))
	}
	if !t.UpdatedAt.IsZero() {
		field("Updated", t.UpdatedAt.Local().Format(timeLayout))
	}
	field("ID", t.ID)

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	sections = append(sections, lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Description"))

	body := t.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetTask updates the task being displayed and re-renders the content.
func (m *Model) SetTask(t model.Task) {
	m.task = &t
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Refresh replaces the shown task with its latest version from tasks.
// It reports false when the task is no longer present.
func (m *Model) Refresh(tasks []model.Task) bool {
	if m.task == nil {
		return false
	}
	for _, t := range tasks {
		if t.ID == m.task.ID {
			m.task = &t
			m.viewport.SetContent(m.renderContent())
			return true
		}
	}
	return false
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.task != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(timeLayout)
}
