package model

// Uncategorized labels the stats bucket for tasks without a category.
const (
	UncategorizedName  = "Uncategorized"
	UncategorizedColor = "#6b7280"
)

// CategoryStats aggregates the tasks filed under one category.
type CategoryStats struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Color          string `json:"color"`
	Count          int    `json:"count"`
	CompletedCount int    `json:"completed_count"`
}

// Stats is derived from a full task collection and never persisted.
type Stats struct {
	Total        int             `json:"total"`
	Active       int             `json:"active"`
	Completed    int             `json:"completed"`
	HighPriority int             `json:"high_priority"`
	Overdue      int             `json:"overdue"`
	Categories   []CategoryStats `json:"categories"`
}

// Projection is the filtered view plus whole-collection stats.
type Projection struct {
	Tasks []Task `json:"tasks"`
	Stats Stats  `json:"stats"`
}
