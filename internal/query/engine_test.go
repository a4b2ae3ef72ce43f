package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepanshu954/TodoFlow/internal/model"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

// fixture has 2 completed, 1 high-priority active, 1 overdue active and
// 1 plain active task.
func fixture() []model.Task {
	work := &model.Category{ID: "c-work", Name: "Work", Color: "#2563eb"}
	return []model.Task{
		{ID: "done-1", Title: "File taxes", Completed: true, Priority: model.PriorityMedium, Category: work,
			CreatedAt: now.Add(-5 * time.Hour), UpdatedAt: now.Add(-5 * time.Hour)},
		{ID: "done-2", Title: "Call plumber", Completed: true, Priority: model.PriorityLow, DueAt: at(-48 * time.Hour),
			CreatedAt: now.Add(-4 * time.Hour), UpdatedAt: now.Add(-4 * time.Hour)},
		{ID: "high", Title: "Ship release", Priority: model.PriorityHigh, Category: work, DueAt: at(48 * time.Hour),
			CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now.Add(-3 * time.Hour)},
		{ID: "overdue", Title: "Renew passport", Description: "bring old photos", Priority: model.PriorityMedium,
			DueAt: at(-time.Hour), CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "plain", Title: "Water plants", Priority: model.PriorityLow,
			CreatedAt: now.Add(-1 * time.Hour), UpdatedAt: now.Add(-1 * time.Hour)},
	}
}

func TestFilter_Status(t *testing.T) {
	tasks := fixture()

	cases := []struct {
		status model.StatusFilter
		want   []string
	}{
		{model.StatusAll, []string{"done-1", "done-2", "high", "overdue", "plain"}},
		{model.StatusActive, []string{"high", "overdue", "plain"}},
		{model.StatusCompleted, []string{"done-1", "done-2"}},
		{model.StatusHighPriority, []string{"high"}},
		{model.StatusOverdue, []string{"overdue"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			got := Filter(tasks, model.Query{Status: tc.status}, now)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestFilter_SearchMatchesTitleOrDescriptionIgnoringCase(t *testing.T) {
	tasks := fixture()

	assert.Equal(t, []string{"high"}, ids(Filter(tasks, model.Query{Search: "SHIP"}, now)))
	assert.Equal(t, []string{"overdue"}, ids(Filter(tasks, model.Query{Search: "photos"}, now)))
	assert.Len(t, Filter(tasks, model.Query{Search: ""}, now), len(tasks))
	assert.Empty(t, Filter(tasks, model.Query{Search: "nothing like this"}, now))
}

func TestFilter_ConjunctiveWithEqualityFilters(t *testing.T) {
	tasks := fixture()

	got := Filter(tasks, model.Query{Status: model.StatusActive, CategoryID: "c-work"}, now)
	assert.Equal(t, []string{"high"}, ids(got))

	got = Filter(tasks, model.Query{Priority: model.PriorityLow, Search: "plant"}, now)
	assert.Equal(t, []string{"plain"}, ids(got))
}

func TestSort_PriorityDescending(t *testing.T) {
	tasks := []model.Task{
		{ID: "l", Priority: model.PriorityLow},
		{ID: "h", Priority: model.PriorityHigh},
		{ID: "m", Priority: model.PriorityMedium},
	}
	Sort(tasks, model.SortPriority, model.SortDesc)
	assert.Equal(t, []string{"h", "m", "l"}, ids(tasks))

	Sort(tasks, model.SortPriority, model.SortAsc)
	assert.Equal(t, []string{"l", "m", "h"}, ids(tasks))
}

func TestSort_TextIgnoresCase(t *testing.T) {
	tasks := []model.Task{{ID: "b", Title: "banana"}, {ID: "a", Title: "Apple"}, {ID: "c", Title: "cherry"}}
	Sort(tasks, model.SortText, model.SortAsc)
	assert.Equal(t, []string{"a", "b", "c"}, ids(tasks))
}

func TestSort_MissingDueDateIsEarliest(t *testing.T) {
	tasks := []model.Task{
		{ID: "later", DueAt: at(2 * time.Hour)},
		{ID: "none"},
		{ID: "sooner", DueAt: at(time.Hour)},
	}
	Sort(tasks, model.SortDueDate, model.SortAsc)
	assert.Equal(t, []string{"none", "sooner", "later"}, ids(tasks))

	Sort(tasks, model.SortDueDate, model.SortDesc)
	assert.Equal(t, []string{"later", "sooner", "none"}, ids(tasks))
}

func TestApply_DoesNotMutateInputAndStatsCoverWholeCollection(t *testing.T) {
	tasks := fixture()
	before := ids(tasks)

	view, stats := Apply(tasks, model.Query{Status: model.StatusCompleted, Sort: model.SortText, Dir: model.SortAsc}, now)

	assert.Equal(t, before, ids(tasks))
	assert.Equal(t, []string{"done-2", "done-1"}, ids(view))
	assert.Equal(t, 5, stats.Total)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(fixture(), now)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Active)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.HighPriority)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, stats.Total, stats.Active+stats.Completed)

	require.Len(t, stats.Categories, 2)
	assert.Equal(t, model.CategoryStats{Name: model.UncategorizedName, Color: model.UncategorizedColor, Count: 3, CompletedCount: 1}, stats.Categories[0])
	assert.Equal(t, model.CategoryStats{ID: "c-work", Name: "Work", Color: "#2563eb", Count: 2, CompletedCount: 1}, stats.Categories[1])
}

func TestComputeStats_Idempotent(t *testing.T) {
	tasks := fixture()
	assert.Equal(t, ComputeStats(tasks, now), ComputeStats(tasks, now))

	empty := ComputeStats(nil, now)
	assert.Equal(t, 0, empty.Total)
	assert.NotNil(t, empty.Categories)
}

func TestProductivityScore(t *testing.T) {
	assert.Equal(t, 0, ProductivityScore(model.Stats{}))
	// 2/5 completed = 40%, one overdue = -10.
	assert.Equal(t, 30, ProductivityScore(ComputeStats(fixture(), now)))
	assert.Equal(t, 100, ProductivityScore(model.Stats{Total: 2, Completed: 2}))
	assert.Equal(t, 0, ProductivityScore(model.Stats{Total: 4, Completed: 1, Overdue: 3}))
}
