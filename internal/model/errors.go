package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by every NotFoundError via errors.Is.
var ErrNotFound = errors.New("task not found")

// ErrNoSession is returned when a task operation is issued before the user
// has either logged in or chosen guest mode.
var ErrNoSession = errors.New("no active session")

// ValidationError indicates bad input. It is raised before any persistence.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NotFoundError indicates the target id is not in the caller's visible set.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StorageError wraps a local persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// RemoteError wraps any failure of the remote service, including transport
// and authentication failures. StatusCode is 0 when no response was read.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote error (%s, %d): %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("remote error (%s): %s", e.Op, msg)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsAuth reports whether the service rejected the caller's credentials.
func (e *RemoteError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsValidationError reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsStorageError reports whether err (or any error in its chain) is a
// StorageError.
func IsStorageError(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}

// IsRemoteError reports whether err (or any error in its chain) is a
// RemoteError.
func IsRemoteError(err error) bool {
	var r *RemoteError
	return errors.As(err, &r)
}

// Kind classifies errors for user-facing messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindStorage
	KindRemote
	KindNoSession
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindRemote:
		return "remote"
	case KindNoSession:
		return "no_session"
	}
	return "unknown"
}

// KindOf returns the taxonomy kind of err.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case IsValidationError(err):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case IsStorageError(err):
		return KindStorage
	case IsRemoteError(err):
		return KindRemote
	case errors.Is(err, ErrNoSession):
		return KindNoSession
	}
	return KindUnknown
}

// Summary returns a short human-readable description of err.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	var r *RemoteError
	if errors.As(err, &r) && r.IsAuth() {
		return "session expired, please log in again"
	}
	switch KindOf(err) {
	case KindNotFound:
		return "task no longer exists"
	case KindStorage:
		return "could not save tasks locally"
	case KindRemote:
		return "server request failed"
	case KindNoSession:
		return "log in or continue as guest first"
	}
	return err.Error()
}
