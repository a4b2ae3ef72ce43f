package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Deepanshu954/TodoFlow/internal/theme"
)

// Layout holds the terminal dimensions and the fixed chrome heights.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatsHeight     int
	StatusBarHeight int
}

// NewLayout creates a Layout with one-line header, stats and status rows.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatsHeight:     1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left for the main view.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatsHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the title bar with the session on the right.
func (l Layout) RenderHeader(title, session string) string {
	return l.bar(theme.HeaderStyle, theme.HeaderStyle.Render(title), theme.HeaderStyle.Render(session))
}

// RenderStatusBar renders the bottom bar. style lets failures stand out.
func (l Layout) RenderStatusBar(style lipgloss.Style, text, hints string) string {
	return l.bar(theme.StatusBarStyle, style.Render(text), theme.StatusBarStyle.Render(hints))
}

// bar fills the gap between left and right with the background of style.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderWithFrame stacks the chrome and the content vertically.
func (l Layout) RenderWithFrame(header, stats, content, statusBar string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		stats,
		content,
		statusBar,
	)
}
