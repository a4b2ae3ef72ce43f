package model

import (
	"strings"
	"time"
)

// Patch represents a partial update.
// nil pointer => "no change"
// pointer to a zero value for optional fields (Category with empty ID,
// zero DueAt/RemindAt) => clear
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *Priority
	Category    *Category
	DueAt       *time.Time
	RemindAt    *time.Time
	Tags        *[]string
	Position    *int
	Recurrence  *Recurrence
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil &&
		p.Priority == nil && p.Category == nil && p.DueAt == nil &&
		p.RemindAt == nil && p.Tags == nil && p.Position == nil &&
		p.Recurrence == nil
}

// Validate rejects patches that would break a task invariant.
func (p Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Message: "title must not be empty"}
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "unknown priority " + string(*p.Priority)}
	}
	if p.Recurrence != nil && !p.Recurrence.Valid() {
		return &ValidationError{Field: "recurrence", Message: "unknown recurrence " + string(*p.Recurrence)}
	}
	return nil
}

// Apply shallow-merges the patch over t and re-stamps UpdatedAt.
// The caller is expected to have validated p.
func (p Patch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Category != nil {
		t.Category = cloneCategory(p.Category)
	}
	if p.DueAt != nil {
		t.DueAt = cloneTime(p.DueAt)
	}
	if p.RemindAt != nil {
		t.RemindAt = cloneTime(p.RemindAt)
	}
	if p.Tags != nil {
		t.Tags = NormalizeTags(*p.Tags)
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.Recurrence != nil {
		t.Recurrence = *p.Recurrence
	}
	t.Touch(now)
}

// CompletedPatch is a patch that only sets the completion flag.
func CompletedPatch(done bool) Patch {
	return Patch{Completed: &done}
}

// BulkAction is an operation applied to a set of task ids at once.
type BulkAction string

const (
	BulkDelete     BulkAction = "delete"
	BulkComplete   BulkAction = "complete"
	BulkUncomplete BulkAction = "uncomplete"
)

// Valid reports whether a is a recognized bulk action.
func (a BulkAction) Valid() bool {
	switch a {
	case BulkDelete, BulkComplete, BulkUncomplete:
		return true
	}
	return false
}
