package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/theme"
)

const dateLayout = "2006-01-02"

// TaskCreatedMsg is dispatched when the create form is submitted.
type TaskCreatedMsg struct {
	Input model.NewTask
}

// TaskUpdatedMsg is dispatched when the edit form is submitted.
type TaskUpdatedMsg struct {
	ID    string
	Patch model.Patch
}

// FormCancelMsg is dispatched when the user cancels the form.
type FormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    model.Priority
	dueDate     string
	category    string
	tags        string
	recurrence  model.Recurrence
	completed   bool
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	editing *model.Task
	width   int
	height  int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editing = nil
	*m.fb = formBindings{priority: model.PriorityMedium, recurrence: model.RecurrenceNone}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with the fields of t.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.editing = &t
	*m.fb = formBindings{
		title:       t.Title,
		description: t.Description,
		priority:    t.Priority,
		tags:        strings.Join(t.Tags, ", "),
		recurrence:  t.Recurrence,
		completed:   t.Completed,
	}
	if t.DueAt != nil {
		m.fb.dueDate = t.DueAt.Local().Format(dateLayout)
	}
	if t.Category != nil {
		m.fb.category = t.Category.Name
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
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
		return m, m.handleSubmit()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return FormCancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editing != nil {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewSelect[model.Priority]().
			Title("Priority").
			Options(
				huh.NewOption("High", model.PriorityHigh),
				huh.NewOption("Medium", model.PriorityMedium),
				huh.NewOption("Low", model.PriorityLow),
			).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(validateOptionalDate),
		huh.NewInput().
			Title("Category").
			Placeholder("e.g. Work (optional)").
			Value(&m.fb.category),
		huh.NewInput().
			Title("Tags").
			Placeholder("comma separated (optional)").
			Value(&m.fb.tags),
		huh.NewSelect[model.Recurrence]().
			Title("Repeats").
			Options(
				huh.NewOption("Never", model.RecurrenceNone),
				huh.NewOption("Daily", model.RecurrenceDaily),
				huh.NewOption("Weekly", model.RecurrenceWeekly),
				huh.NewOption("Monthly", model.RecurrenceMonthly),
				huh.NewOption("Yearly", model.RecurrenceYearly),
			).
			Value(&m.fb.recurrence),
	}
	if m.editing != nil {
		fields = append(fields,
			huh.NewConfirm().
				Title("Completed").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fb.completed),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	fb := *m.fb
	due := parseDate(fb.dueDate)
	tags := splitTags(fb.tags)

	if m.editing == nil {
		in := model.NewTask{
			Title:       fb.title,
			Description: fb.description,
			Priority:    fb.priority,
			Category:    category(fb.category, nil),
			DueAt:       due,
			Tags:        tags,
			Recurrence:  fb.recurrence,
		}
		return func() tea.Msg { return TaskCreatedMsg{Input: in} }
	}

	orig := *m.editing
	p := model.Patch{
		Title:       &fb.title,
		Description: &fb.description,
		Priority:    &fb.priority,
		Tags:        &tags,
		Recurrence:  &fb.recurrence,
		Completed:   &fb.completed,
	}
	switch {
	case due == nil:
		due = &time.Time{}
	case orig.DueAt != nil && orig.DueAt.Local().Format(dateLayout) == strings.TrimSpace(fb.dueDate):
		// Same day: keep the original time of day.
		due = orig.DueAt
	}
	p.DueAt = due
	if c := category(fb.category, orig.Category); c != nil {
		p.Category = c
	} else {
		p.Category = &model.Category{}
	}
	return func() tea.Msg { return TaskUpdatedMsg{ID: orig.ID, Patch: p} }
}

// category builds a category reference from a typed name, keeping the
// color of prev when the name still refers to it.
func category(name string, prev *model.Category) *model.Category {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	c := &model.Category{ID: strings.ToLower(strings.Join(strings.Fields(name), "-")), Name: name}
	if prev != nil && prev.ID == c.ID {
		c.Color = prev.Color
	}
	return c
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return model.NormalizeTags(strings.Split(s, ","))
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
