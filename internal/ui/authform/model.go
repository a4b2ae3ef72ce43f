// Package authform is the start screen shown while no session is active.
package authform

import (
	"errors"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Deepanshu954/TodoFlow/internal/theme"
)

// Action is what the user chose on the start screen.
type Action string

const (
	ActionSignIn Action = "signin"
	ActionSignUp Action = "signup"
	ActionGuest  Action = "guest"
)

// SubmitMsg is dispatched when the form is completed.
type SubmitMsg struct {
	Action   Action
	Email    string
	Password string
}

type formBindings struct {
	action   Action
	email    string
	password string
}

// Model is the Bubble Tea model for the start screen.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	errMsg string
	width  int
	height int
}

// New creates the start screen.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{action: ActionSignIn},
		width:  width,
		height: height,
	}
}

// Start shows the form, keeping a previously typed email. errMsg, when
// set, explains why the last attempt failed.
func (m *Model) Start(errMsg string) tea.Cmd {
	m.errMsg = errMsg
	m.fb.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the start screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		out := SubmitMsg{Action: m.fb.action, Email: strings.TrimSpace(m.fb.email), Password: m.fb.password}
		return m, func() tea.Msg { return out }
	case huh.StateAborted:
		m.form = nil
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the start screen.
func (m Model) View() string {
	if m.form == nil {
		return lipgloss.NewStyle().Padding(1, 2).Foreground(theme.ColorGray).Render("Signing in...")
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1).
		Render("Welcome to TodoFlow")

	parts := []string{title}
	if m.errMsg != "" {
		parts = append(parts, theme.OverdueStyle.Render(m.errMsg))
	}
	parts = append(parts, m.form.View())

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	isGuest := func() bool { return fb.action == ActionGuest }

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Action]().
				Title("How do you want to continue?").
				Options(
					huh.NewOption("Sign in", ActionSignIn),
					huh.NewOption("Create an account", ActionSignUp),
					huh.NewOption("Continue as guest (tasks stay on this machine)", ActionGuest),
				).
				Value(&m.fb.action),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password is required")
					}
					return nil
				}),
		).WithHideFunc(isGuest),
	).WithWidth(min(max(m.width-4, 40), 80))
}

func validateEmail(s string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
		return errors.New("enter a valid email address")
	}
	return nil
}
