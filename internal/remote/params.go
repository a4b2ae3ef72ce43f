package remote

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Deepanshu954/TodoFlow/internal/model"
)

// sortColumns maps sort keys onto service columns.
var sortColumns = map[model.SortKey]string{
	model.SortCreatedAt: "created_at",
	model.SortUpdatedAt: "updated_at",
	model.SortDueDate:   "due_date",
	model.SortPriority:  "priority",
	model.SortText:      "title",
}

// queryParams translates q into the service's filter syntax. Only
// equality, case-insensitive title substring and a single order are
// expressible; the overdue predicate is finished client-side.
func queryParams(q model.Query) url.Values {
	q = q.Normalized()
	v := url.Values{}
	v.Set("select", "*")

	if q.Search != "" {
		v.Add("title", "ilike.*"+q.Search+"*")
	}
	if q.CategoryID != "" {
		v.Add("category_id", "eq."+q.CategoryID)
	}
	if q.Priority != "" {
		v.Add("priority", "eq."+string(q.Priority))
	}

	switch q.Status {
	case model.StatusActive, model.StatusOverdue:
		v.Add("completed", "eq.false")
	case model.StatusCompleted:
		v.Add("completed", "eq.true")
	case model.StatusHighPriority:
		v.Add("priority", "eq."+string(model.PriorityHigh))
		v.Add("completed", "eq.false")
	}

	v.Set("order", sortColumns[q.Sort]+"."+string(q.Dir))
	return v
}

// idFilter selects rows by id: eq for one, in for many.
func idFilter(ids ...string) url.Values {
	v := url.Values{}
	if len(ids) == 1 {
		v.Set("id", "eq."+ids[0])
		return v
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = strconv.Quote(id)
	}
	v.Set("id", "in.("+strings.Join(quoted, ",")+")")
	return v
}

// taskPayload is the insert body.
type taskPayload struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Completed   bool             `json:"completed"`
	Priority    model.Priority   `json:"priority"`
	Category    *model.Category  `json:"category"`
	DueAt       *time.Time       `json:"due_date"`
	RemindAt    *time.Time       `json:"reminder_at"`
	Tags        []string         `json:"tags"`
	Position    int              `json:"position"`
	Recurrence  model.Recurrence `json:"recurrence"`
}

func newTaskPayload(in model.NewTask) taskPayload {
	t := in.Build("", time.Time{})
	return taskPayload{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		DueAt:       t.DueAt,
		RemindAt:    t.RemindAt,
		Tags:        t.Tags,
		Position:    t.Position,
		Recurrence:  t.Recurrence,
	}
}

// patchPayload renders p as a partial body. Cleared optional fields are
// sent as explicit nulls.
func patchPayload(p model.Patch) map[string]any {
	body := map[string]any{}
	if p.Title != nil {
		body["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Completed != nil {
		body["completed"] = *p.Completed
	}
	if p.Priority != nil {
		body["priority"] = *p.Priority
	}
	if p.Category != nil {
		if p.Category.ID == "" {
			body["category"] = nil
		} else {
			body["category"] = *p.Category
		}
	}
	if p.DueAt != nil {
		body["due_date"] = timeOrNil(*p.DueAt)
	}
	if p.RemindAt != nil {
		body["reminder_at"] = timeOrNil(*p.RemindAt)
	}
	if p.Tags != nil {
		body["tags"] = model.NormalizeTags(*p.Tags)
	}
	if p.Position != nil {
		body["position"] = *p.Position
	}
	if p.Recurrence != nil {
		body["recurrence"] = *p.Recurrence
	}
	return body
}

func timeOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
