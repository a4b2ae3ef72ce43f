package model

import (
	"strings"
	"time"
)

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank maps a priority to its sort ordinal (high=3, medium=2, low=1).
// Unknown values rank as 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Recurrence describes how often a task repeats.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// Valid reports whether r is one of the known recurrence rules.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// Category is the display reference a task can be filed under.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Task is a single unit of work owned by one user (or the guest slot).
type Task struct {
	// ID is immutable once assigned.
	ID string `json:"id"`

	// Title is trimmed and never empty.
	Title string `json:"title"`

	Description string `json:"description,omitempty"`

	Completed bool `json:"completed"`

	Priority Priority `json:"priority"`

	// Category is nil when the task is uncategorized.
	Category *Category `json:"category,omitempty"`

	DueAt    *time.Time `json:"due_date,omitempty"`
	RemindAt *time.Time `json:"reminder_at,omitempty"`

	// Tags is an ordered list without duplicates.
	Tags []string `json:"tags"`

	// Position is used for manual ordering.
	Position int `json:"position"`

	Recurrence Recurrence `json:"recurrence"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Same reports whether t and other refer to the same task.
func (t Task) Same(other Task) bool {
	return t.ID == other.ID
}

// IsOverdue reports whether the task is active and its due date has passed.
func (t Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueAt != nil && t.DueAt.Before(now)
}

// CategoryID returns the category id or "" when uncategorized.
func (t Task) CategoryID() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.ID
}

// Touch re-stamps UpdatedAt so that it strictly advances past its previous
// value even when the clock has not moved.
func (t *Task) Touch(now time.Time) {
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Nanosecond)
	}
	t.UpdatedAt = now
}

// NewTask is the input for creating a task. Zero values take the defaults.
type NewTask struct {
	Title       string
	Description string
	Priority    Priority
	Category    *Category
	DueAt       *time.Time
	RemindAt    *time.Time
	Tags        []string
	Position    int
	Recurrence  Recurrence
}

// Normalize trims the title, fills default enums and dedupes tags.
func (n NewTask) Normalize() NewTask {
	n.Title = strings.TrimSpace(n.Title)
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Recurrence == "" {
		n.Recurrence = RecurrenceNone
	}
	if n.Category != nil && n.Category.ID == "" {
		n.Category = nil
	}
	n.Tags = NormalizeTags(n.Tags)
	return n
}

// Validate checks a normalized NewTask.
func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return &ValidationError{Field: "title", Message: "title must not be empty"}
	}
	if n.Priority != "" && !n.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "unknown priority " + string(n.Priority)}
	}
	if n.Recurrence != "" && !n.Recurrence.Valid() {
		return &ValidationError{Field: "recurrence", Message: "unknown recurrence " + string(n.Recurrence)}
	}
	return nil
}

// Build turns the input into a Task with the given id, stamped at now.
// The caller is expected to have validated n.
func (n NewTask) Build(id string, now time.Time) Task {
	n = n.Normalize()
	return Task{
		ID:          id,
		Title:       n.Title,
		Description: n.Description,
		Completed:   false,
		Priority:    n.Priority,
		Category:    cloneCategory(n.Category),
		DueAt:       cloneTime(n.DueAt),
		RemindAt:    cloneTime(n.RemindAt),
		Tags:        n.Tags,
		Position:    n.Position,
		Recurrence:  n.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NormalizeTags trims tags, drops blanks and removes case-sensitive
// duplicates keeping the first occurrence. It never returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	c := *t
	return &c
}

func cloneCategory(c *Category) *Category {
	if c == nil || c.ID == "" {
		return nil
	}
	cc := *c
	return &cc
}
