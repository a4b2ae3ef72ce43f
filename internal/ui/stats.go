package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/theme"
)

// RenderStats renders the one-line summary of the whole collection:
// counts, the productivity score and per-category progress, truncated to
// the layout width.
func (l Layout) RenderStats(s model.Stats, productivity int) string {
	stat := func(n int, label string) string {
		return theme.StatValueStyle.Render(fmt.Sprint(n)) + " " + theme.StatLabelStyle.Render(label)
	}

	parts := []string{
		stat(s.Total, "total"),
		stat(s.Active, "active"),
		stat(s.Completed, "done"),
		stat(s.HighPriority, "high"),
	}
	if s.Overdue > 0 {
		parts = append(parts, theme.OverdueStyle.Render(fmt.Sprintf("%d overdue", s.Overdue)))
	} else {
		parts = append(parts, stat(0, "overdue"))
	}
	parts = append(parts, theme.ProductivityStyle(productivity).Render(fmt.Sprintf("%d%%", productivity))+" "+
		theme.StatLabelStyle.Render("productive"))

	for _, c := range s.Categories {
		parts = append(parts, theme.CategoryStyle(c.Color).Render(c.Name)+" "+
			theme.StatLabelStyle.Render(fmt.Sprintf("%d/%d", c.CompletedCount, c.Count)))
	}

	line := " " + strings.Join(parts, theme.StatLabelStyle.Render(" · "))
	return lipgloss.NewStyle().MaxWidth(l.Width).Render(line)
}
