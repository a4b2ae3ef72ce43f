package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/Deepanshu954/TodoFlow/internal/model"
)

func TestRenderStats(t *testing.T) {
	l := NewLayout(200, 40)
	s := model.Stats{
		Total:        5,
		Active:       3,
		Completed:    2,
		HighPriority: 1,
		Overdue:      2,
		Categories: []model.CategoryStats{
			{ID: "work", Name: "Work", Count: 3, CompletedCount: 1},
		},
	}

	out := l.RenderStats(s, 40)
	for _, want := range []string{"5 total", "3 active", "2 done", "1 high", "2 overdue", "40% productive", "Work 1/3"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderStats_Truncates(t *testing.T) {
	l := NewLayout(20, 10)
	out := l.RenderStats(model.Stats{Total: 12345}, 0)
	assert.LessOrEqual(t, lipgloss.Width(out), 20)
}
