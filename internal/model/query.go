package model

// StatusFilter selects tasks by completion state.
type StatusFilter string

const (
	StatusAll          StatusFilter = "all"
	StatusActive       StatusFilter = "active"
	StatusCompleted    StatusFilter = "completed"
	StatusHighPriority StatusFilter = "high-priority"
	StatusOverdue      StatusFilter = "overdue"
)

// StatusFilters lists the filters in display order.
var StatusFilters = []StatusFilter{
	StatusAll, StatusActive, StatusCompleted, StatusHighPriority, StatusOverdue,
}

// Valid reports whether f is a known status filter.
func (f StatusFilter) Valid() bool {
	for _, s := range StatusFilters {
		if s == f {
			return true
		}
	}
	return false
}

// SortKey names the field a view is ordered by.
type SortKey string

const (
	SortCreatedAt SortKey = "created_at"
	SortUpdatedAt SortKey = "updated_at"
	SortDueDate   SortKey = "due_date"
	SortPriority  SortKey = "priority"
	SortText      SortKey = "text"
)

// SortKeys lists the sort keys in display order.
var SortKeys = []SortKey{SortCreatedAt, SortUpdatedAt, SortDueDate, SortPriority, SortText}

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	for _, s := range SortKeys {
		if s == k {
			return true
		}
	}
	return false
}

// SortDir is the ordering direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Query describes the filtered, sorted view the UI wants to see.
// It is transient and never persisted.
type Query struct {
	Search string
	Status StatusFilter
	Sort   SortKey
	Dir    SortDir

	// CategoryID and Priority are optional equality filters.
	CategoryID string
	Priority   Priority
}

// DefaultQuery returns the unfiltered view, newest first.
func DefaultQuery() Query {
	return Query{Status: StatusAll, Sort: SortCreatedAt, Dir: SortDesc}
}

// Normalized replaces unknown or empty enum values with the defaults.
func (q Query) Normalized() Query {
	if !q.Status.Valid() {
		q.Status = StatusAll
	}
	if !q.Sort.Valid() {
		q.Sort = SortCreatedAt
	}
	if q.Dir != SortAsc {
		q.Dir = SortDesc
	}
	if q.Priority != "" && !q.Priority.Valid() {
		q.Priority = ""
	}
	return q
}
