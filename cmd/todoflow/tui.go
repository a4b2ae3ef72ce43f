package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Deepanshu954/TodoFlow/internal/app"
	"github.com/Deepanshu954/TodoFlow/internal/model"
)

const logFileName = "todoflow.log"

// runTUI starts the interactive interface. Logs go to a file so they do
// not draw over the screen.
func runTUI(ctx context.Context) error {
	dir := model.ConfigDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	notifier, notices := app.NewNotifier()
	rt, err := openRuntime(ctx, logFile, notifier)
	if err != nil {
		return err
	}
	defer rt.Close()

	m := app.New(rt.tasks, rt.sessions, rt.marker, notices)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
