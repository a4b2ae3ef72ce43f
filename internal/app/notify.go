package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/service"
)

// noticeBuffer is how many outcomes may queue while the UI is busy.
// Older notices are dropped once it is full.
const noticeBuffer = 32

// Notice is one operation outcome shown in the status bar.
type Notice struct {
	Text string
	Err  bool
}

// noticeMsg delivers a Notice to the root model.
type noticeMsg Notice

// NewNotifier returns a service notifier whose outcomes are delivered to
// the UI through the returned channel.
func NewNotifier() (service.Notifier, <-chan Notice) {
	ch := make(chan Notice, noticeBuffer)
	n := service.NotifierFunc(func(msg string, err error, ok bool) {
		notice := Notice{Text: msg}
		if !ok {
			notice.Err = true
			if summary := model.Summary(err); summary != "" {
				notice.Text = msg + ": " + summary
			}
		}
		for {
			select {
			case ch <- notice:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	return n, ch
}

// waitForNotice returns a command that blocks until the next notice.
// It is re-issued after every notice so the subscription stays open.
func waitForNotice(ch <-chan Notice) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}
