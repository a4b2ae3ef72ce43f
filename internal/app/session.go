package app

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/session"
	"github.com/Deepanshu954/TodoFlow/internal/ui/authform"
)

// authResultMsg is sent after a sign-in, sign-up, guest or logout attempt.
type authResultMsg struct {
	state   session.State
	changed bool
	err     error
}

// authenticate runs the start screen choice against the session provider
// and remembers whether guest mode was picked.
func (m Model) authenticate(sub authform.SubmitMsg) tea.Cmd {
	sessions, marker := m.sessions, m.marker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()

		before := sessions.Current().Epoch
		var st session.State
		var err error
		switch sub.Action {
		case authform.ActionGuest:
			st, err = sessions.SkipAuth(ctx)
		case authform.ActionSignUp:
			st, err = sessions.SignUp(ctx, sub.Email, sub.Password)
		default:
			st, err = sessions.Login(ctx, sub.Email, sub.Password)
		}

		changed := st.Epoch != before
		if changed && marker != nil {
			_ = marker.Set(ctx, sub.Action == authform.ActionGuest)
		}
		return authResultMsg{state: st, changed: changed, err: err}
	}
}

// logout ends the session and forgets the guest choice.
func (m Model) logout() tea.Cmd {
	sessions, marker := m.sessions, m.marker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()

		if marker != nil {
			_ = marker.Set(ctx, false)
		}
		st, err := sessions.Logout(ctx)
		return authResultMsg{state: st, changed: true, err: err}
	}
}

// authFailure turns a failed attempt into a line for the start screen.
func authFailure(err error) string {
	var rerr *model.RemoteError
	if errors.As(err, &rerr) && rerr.Message != "" {
		return rerr.Message
	}
	if model.KindOf(err) != model.KindUnknown {
		return model.Summary(err)
	}
	return err.Error()
}
