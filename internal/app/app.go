package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Deepanshu954/TodoFlow/internal/keys"
	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/session"
	"github.com/Deepanshu954/TodoFlow/internal/theme"
	"github.com/Deepanshu954/TodoFlow/internal/ui"
	"github.com/Deepanshu954/TodoFlow/internal/ui/authform"
	"github.com/Deepanshu954/TodoFlow/internal/ui/detail"
	helpview "github.com/Deepanshu954/TodoFlow/internal/ui/help"
	"github.com/Deepanshu954/TodoFlow/internal/ui/taskform"
	"github.com/Deepanshu954/TodoFlow/internal/ui/tasklist"
)

const (
	opTimeout   = 30 * time.Second
	authTimeout = 30 * time.Second
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewAuth ViewState = iota
	ViewList
	ViewDetail
	ViewTaskCreate
	ViewTaskEdit
	ViewHelp
)

// Tasks is the task facade the UI drives.
type Tasks interface {
	tasklist.Service
	Add(ctx context.Context, in model.NewTask) (model.Task, error)
	Update(ctx context.Context, id string, p model.Patch) (model.Task, error)
}

// Sessions is the session provider the start screen drives.
type Sessions interface {
	Current() session.State
	Login(ctx context.Context, email, password string) (session.State, error)
	SignUp(ctx context.Context, email, password string) (session.State, error)
	SkipAuth(ctx context.Context) (session.State, error)
	Logout(ctx context.Context) (session.State, error)
}

// GuestMarker remembers the guest choice between runs.
type GuestMarker interface {
	Set(ctx context.Context, on bool) error
}

// Model is the root Bubble Tea model that routes between the start
// screen, the task list and the task form.
type Model struct {
	currentView ViewState
	layout      ui.Layout
	tasks       Tasks
	sessions    Sessions
	marker      GuestMarker
	notices     <-chan Notice
	keys        *keys.KeyMap
	taskList    tasklist.Model
	detailView  detail.Model
	taskForm    taskform.Model
	authForm    authform.Model
	helpView    helpview.Model
	startCmd    tea.Cmd
	notice      Notice
	ready       bool
}

// New creates the root model. When no session is active the start screen
// is shown first.
func New(tasks Tasks, sessions Sessions, marker GuestMarker, notices <-chan Notice) Model {
	k := keys.DefaultKeyMap()
	m := Model{
		currentView: ViewList,
		tasks:       tasks,
		sessions:    sessions,
		marker:      marker,
		notices:     notices,
		keys:        k,
		taskList:    tasklist.New(tasks, k, 80, 24),
		detailView:  detail.New(k, 80, 24),
		taskForm:    taskform.New(80, 24),
		authForm:    authform.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
	}

	if sessions.Current().Mode == session.ModeUnset {
		m.currentView = ViewAuth
		m.startCmd = m.authForm.Start("")
	} else {
		m.startCmd = m.taskList.Init()
	}
	return m
}

// Init starts the first view and the notice subscription.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startCmd, waitForNotice(m.notices))
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.taskList.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.taskForm.SetSize(w, h)
		m.authForm.SetSize(w, h)
		m.helpView.SetSize(w, h)
		// Forward to the active view so huh forms can lay themselves out.
		return m.updateActiveView(msg)

	case noticeMsg:
		m.notice = Notice(msg)
		return m, waitForNotice(m.notices)

	case tasklist.SnapshotMsg:
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		if msg.Snapshot.Mode == session.ModeUnset && m.currentView != ViewAuth {
			m.currentView = ViewAuth
			return m, tea.Batch(cmd, m.authForm.Start("Your session has ended."))
		}
		if !m.detailView.Refresh(msg.Snapshot.Tasks) && m.currentView == ViewDetail {
			m.currentView = ViewList
		}
		return m, cmd

	case authform.SubmitMsg:
		return m, m.authenticate(msg)

	case authResultMsg:
		if !msg.changed {
			return m, m.authForm.Start(authFailure(msg.err))
		}
		if msg.state.Mode == session.ModeUnset {
			m.currentView = ViewAuth
			m.notice = Notice{Text: "Signed out"}
			return m, m.authForm.Start("")
		}
		m.currentView = ViewList
		m.notice = Notice{Text: "Signed in as " + sessionLabel(msg.state)}
		snap := m.tasks.Snapshot()
		return m, func() tea.Msg { return tasklist.SnapshotMsg{Snapshot: snap} }

	case tasklist.OpenTaskMsg:
		m.currentView = ViewDetail
		m.detailView.SetTask(msg.Task)
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case tasklist.NewTaskMsg:
		m.currentView = ViewTaskCreate
		return m, m.taskForm.StartCreate()

	case tasklist.EditTaskMsg:
		m.currentView = ViewTaskEdit
		return m, m.taskForm.StartEdit(msg.Task)

	case taskform.TaskCreatedMsg:
		m.currentView = ViewList
		return m, m.createTask(msg.Input)

	case taskform.TaskUpdatedMsg:
		m.currentView = ViewList
		return m, m.updateTask(msg.ID, msg.Patch)

	case taskform.FormCancelMsg:
		m.currentView = ViewList
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.currentView == ViewHelp {
			if key.Matches(msg, m.keys.Help) || msg.String() == "esc" {
				m.currentView = ViewList
			}
			return m, nil
		}
		if m.currentView == ViewList && !m.taskList.Searching() {
			switch {
			case key.Matches(msg, m.keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, m.keys.Help):
				m.currentView = ViewHelp
				return m, nil
			case key.Matches(msg, m.keys.Logout):
				return m, m.logout()
			}
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewAuth:
		m.authForm, cmd = m.authForm.Update(msg)
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewTaskCreate, ViewTaskEdit:
		m.taskForm, cmd = m.taskForm.Update(msg)
	}

	return m, cmd
}

// createTask adds a task and reports the resulting state to the list.
func (m Model) createTask(in model.NewTask) tea.Cmd {
	tasks := m.tasks
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, _ = tasks.Add(ctx, in)
		return tasklist.SnapshotMsg{Snapshot: tasks.Snapshot()}
	}
}

// updateTask applies p and reports the resulting state to the list.
func (m Model) updateTask(id string, p model.Patch) tea.Cmd {
	tasks := m.tasks
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		_, _ = tasks.Update(ctx, id, p)
		return tasklist.SnapshotMsg{Snapshot: tasks.Snapshot()}
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("TodoFlow", sessionLabel(m.sessions.Current()))

	stats := ""
	if m.currentView != ViewAuth {
		snap := m.tasks.Snapshot()
		stats = m.layout.RenderStats(snap.Stats, snap.Productivity)
	}

	style := theme.StatusBarStyle
	if m.notice.Err {
		style = theme.ErrorStyle
	}
	statusBar := m.layout.RenderStatusBar(style, m.notice.Text, m.keyHints())

	content := lipgloss.NewStyle().
		Height(m.layout.ContentHeight()).
		MaxHeight(m.layout.ContentHeight()).
		Render(m.renderContent())

	return m.layout.RenderWithFrame(header, stats, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewAuth:
		return m.authForm.View()
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewTaskCreate, ViewTaskEdit:
		return m.taskForm.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewAuth:
		return "enter continue | ctrl+c quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "e edit | esc back | j/k scroll"
	case ViewTaskCreate, ViewTaskEdit:
		return "enter submit | esc cancel"
	default:
		if m.taskList.Searching() {
			return "enter apply | esc clear"
		}
		return "n new | enter details | space done | x select | / search | ? help | q quit"
	}
}

// sessionLabel names the session for the header.
func sessionLabel(st session.State) string {
	switch st.Mode {
	case session.ModeAuthenticated:
		if st.Identity != nil {
			return st.Identity.Email
		}
		return "signed in"
	case session.ModeGuest:
		return "guest (local)"
	default:
		return "signed out"
	}
}
