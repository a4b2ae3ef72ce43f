// Package store holds the backend contract shared by guest and
// authenticated modes, and the guest-mode implementation on a local slot.
package store

import (
	"context"

	"github.com/Deepanshu954/TodoFlow/internal/model"
)

// Backend is the capability set both storage modes provide. The service
// facade talks only to this interface and picks one implementation per
// session.
type Backend interface {
	// Project returns the view for q and stats over the full collection.
	Project(ctx context.Context, q model.Query) (model.Projection, error)

	// Create validates and persists a new task, returning it with its id
	// and timestamps assigned.
	Create(ctx context.Context, in model.NewTask) (model.Task, error)

	// Update merges p into the task with the given id. It returns a
	// NotFoundError when the id does not exist for the caller.
	Update(ctx context.Context, id string, p model.Patch) (model.Task, error)

	// Delete removes a task.
	Delete(ctx context.Context, id string) error

	// BulkApply applies one action to every id as a single batch.
	BulkApply(ctx context.Context, ids []string, action model.BulkAction) error
}
