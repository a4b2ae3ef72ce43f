// Package query filters, sorts and aggregates task collections in memory.
// Guest mode runs it over the full local collection; authenticated mode uses
// it to finish what the remote service cannot express and to compute stats.
package query

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Deepanshu954/TodoFlow/internal/model"
)

// epoch is the timestamp used for tasks missing a date sort key.
var epoch = time.Unix(0, 0).UTC()

// Apply returns the filtered and sorted view of tasks together with stats
// computed over the whole collection, not the view.
func Apply(tasks []model.Task, q model.Query, now time.Time) ([]model.Task, model.Stats) {
	q = q.Normalized()
	view := Filter(tasks, q, now)
	Sort(view, q.Sort, q.Dir)
	return view, ComputeStats(tasks, now)
}

// Filter returns the tasks matching every predicate of q, in input order.
// The input slice is not modified.
func Filter(tasks []model.Task, q model.Query, now time.Time) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, q, now) {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether t passes the search, status and equality
// filters of q.
func Matches(t model.Task, q model.Query, now time.Time) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}

	if q.CategoryID != "" && t.CategoryID() != q.CategoryID {
		return false
	}
	if q.Priority != "" && t.Priority != q.Priority {
		return false
	}

	switch q.Status {
	case model.StatusActive:
		return !t.Completed
	case model.StatusCompleted:
		return t.Completed
	case model.StatusHighPriority:
		return t.Priority == model.PriorityHigh && !t.Completed
	case model.StatusOverdue:
		return t.IsOverdue(now)
	default:
		return true
	}
}

// Sort orders tasks in place by key and direction. Ties keep their
// relative order.
func Sort(tasks []model.Task, key model.SortKey, dir model.SortDir) {
	less := lessFunc(key)
	sort.SliceStable(tasks, func(i, j int) bool {
		if dir == model.SortAsc {
			return less(tasks[i], tasks[j])
		}
		return less(tasks[j], tasks[i])
	})
}

func lessFunc(key model.SortKey) func(a, b model.Task) bool {
	switch key {
	case model.SortPriority:
		return func(a, b model.Task) bool { return a.Priority.Rank() < b.Priority.Rank() }
	case model.SortText:
		return func(a, b model.Task) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case model.SortUpdatedAt:
		return func(a, b model.Task) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case model.SortDueDate:
		return func(a, b model.Task) bool { return orEpoch(a.DueAt).Before(orEpoch(b.DueAt)) }
	default:
		return func(a, b model.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

func orEpoch(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return epoch
	}
	return *t
}

// ComputeStats aggregates the full collection. Categories are ordered by
// name so that repeated calls produce identical snapshots.
func ComputeStats(tasks []model.Task, now time.Time) model.Stats {
	var s model.Stats
	byCategory := make(map[string]*model.CategoryStats)

	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		} else {
			s.Active++
			if t.Priority == model.PriorityHigh {
				s.HighPriority++
			}
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}

		key, name, color := "", model.UncategorizedName, model.UncategorizedColor
		if t.Category != nil {
			key, name, color = t.Category.ID, t.Category.Name, t.Category.Color
		}
		cs, ok := byCategory[key]
		if !ok {
			cs = &model.CategoryStats{ID: key, Name: name, Color: color}
			byCategory[key] = cs
		}
		cs.Count++
		if t.Completed {
			cs.CompletedCount++
		}
	}

	s.Categories = make([]model.CategoryStats, 0, len(byCategory))
	for _, cs := range byCategory {
		s.Categories = append(s.Categories, *cs)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	return s
}

// ProductivityScore is the completion rate in percent minus ten points per
// overdue task, clamped to [0, 100].
func ProductivityScore(s model.Stats) int {
	if s.Total == 0 {
		return 0
	}
	rate := int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	score := rate - s.Overdue*10
	return max(0, min(100, score))
}
