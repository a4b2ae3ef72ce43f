package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/Deepanshu954/TodoFlow/internal/keys"
	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/theme"
)

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// View renders the key bindings followed by the filter and sort cycles.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	filters := make([]string, len(model.StatusFilters))
	for i, f := range model.StatusFilters {
		filters[i] = string(f)
	}
	sorts := make([]string, len(model.SortKeys))
	for i, k := range model.SortKeys {
		sorts[i] = string(k)
	}
	legend := theme.HelpStyle.Render(
		"f cycles " + strings.Join(filters, " → ") + "\n" +
			"s cycles " + strings.Join(sorts, " → ") + "\n" +
			"HI/MD/LO priority · @category · #tag · • selected",
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		legend,
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
