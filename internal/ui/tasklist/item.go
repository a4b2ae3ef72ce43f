package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/theme"
)

// maxTags is how many tags fit on one row before the rest are elided.
const maxTags = 3

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task     model.Task
	Selected bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{string(i.Task.Priority), relativeTime(time.Now(), i.Task.UpdatedAt)}
	if i.Task.Category != nil {
		parts = append(parts, i.Task.Category.Name)
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering task rows.
type ItemDelegate struct {
	now func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(ti, index == m.Index(), d.clock()))
}

func (d ItemDelegate) clock() time.Time {
	if d.now == nil {
		return time.Now()
	}
	return d.now()
}

// renderRow draws: mark, checkbox, priority, title, category, tags, due.
func renderRow(ti TaskItem, focused bool, now time.Time) string {
	t := ti.Task

	mark := " "
	if ti.Selected {
		mark = theme.MarkStyle.Render("•")
	}

	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	pri := theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority))

	title := t.Title
	if t.Completed {
		title = theme.DimmedStyle.Render(title)
	}

	category := ""
	if t.Category != nil {
		category = " " + theme.CategoryStyle(t.Category.Color).Render("@"+t.Category.Name)
	}

	tags := ""
	if len(t.Tags) > 0 {
		display := t.Tags
		if len(display) > maxTags {
			display = append(display[:maxTags:maxTags], "…")
		}
		tags = " " + theme.TagStyle.Render("#"+strings.Join(display, " #"))
	}

	due := ""
	if t.DueAt != nil {
		label := t.DueAt.Local().Format("Jan 02")
		if t.IsOverdue(now) {
			due = " " + theme.OverdueStyle.Render(label+" OVERDUE")
		} else {
			due = " " + theme.DueDateStyle.Render(label)
		}
	}

	line := fmt.Sprintf("%s %s %s %s%s%s%s", mark, check, pri, title, category, tags, due)

	if focused {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}

// priorityLabel returns a short label for the given priority level.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "HI"
	case model.PriorityMedium:
		return "MD"
	case model.PriorityLow:
		return "LO"
	default:
		return "--"
	}
}
