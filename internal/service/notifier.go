package service

import (
	"log/slog"

	"github.com/Deepanshu954/TodoFlow/internal/model"
)

// Notifier receives the user-facing outcome of every operation.
type Notifier interface {
	Success(msg string)
	Failure(msg string, err error)
}

// LogNotifier writes outcomes to a slog logger.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Log != nil {
		return n.Log
	}
	return slog.Default()
}

// Success logs msg at info level.
func (n LogNotifier) Success(msg string) {
	n.logger().Info(msg)
}

// Failure logs msg and the error kind at error level.
func (n LogNotifier) Failure(msg string, err error) {
	n.logger().Error(msg, "kind", model.KindOf(err).String(), "err", err)
}

// NotifierFunc adapts a function to Notifier. ok is false for failures.
type NotifierFunc func(msg string, err error, ok bool)

// Success implements Notifier.
func (f NotifierFunc) Success(msg string) { f(msg, nil, true) }

// Failure implements Notifier.
func (f NotifierFunc) Failure(msg string, err error) { f(msg, err, false) }
