package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/query"
)

// LocalStore is the guest-mode backend. The whole collection lives in one
// slot as a JSON array and every mutation is a full read-modify-write.
// It is not safe for concurrent writers.
type LocalStore struct {
	slot  Slot
	name  string
	now   func() time.Time
	newID func() string
	log   *slog.Logger
}

// LocalOption customizes a LocalStore.
type LocalOption func(*LocalStore)

// WithClock overrides the time source used for stamps and overdue checks.
func WithClock(now func() time.Time) LocalOption {
	return func(s *LocalStore) { s.now = now }
}

// WithIDGenerator overrides task id generation.
func WithIDGenerator(gen func() string) LocalOption {
	return func(s *LocalStore) { s.newID = gen }
}

// WithLogger sets the logger used for recoverable slot problems.
func WithLogger(l *slog.Logger) LocalOption {
	return func(s *LocalStore) { s.log = l }
}

// NewLocalStore returns a guest backend persisting under slot name.
func NewLocalStore(slot Slot, name string, opts ...LocalOption) *LocalStore {
	s := &LocalStore{
		slot:  slot,
		name:  name,
		now:   time.Now,
		newID: newTaskID,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newTaskID returns a UUIDv7: a millisecond timestamp followed by random
// bits, so ids are unique and sort by creation time.
func newTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// LoadAll returns the persisted collection. A missing or unparsable slot
// yields an empty collection; only a failing slot read is an error.
func (s *LocalStore) LoadAll(ctx context.Context) ([]model.Task, error) {
	data, ok, err := s.slot.Read(ctx, s.name)
	if err != nil {
		return nil, &model.StorageError{Op: "load", Err: err}
	}
	if !ok || len(data) == 0 {
		return []model.Task{}, nil
	}

	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		s.log.Warn("discarding unreadable guest tasks", "slot", s.name, "err", err)
		return []model.Task{}, nil
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	for i := range tasks {
		if tasks[i].Tags == nil {
			tasks[i].Tags = []string{}
		}
	}
	return tasks, nil
}

// SaveAll overwrites the slot with tasks verbatim.
func (s *LocalStore) SaveAll(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return &model.StorageError{Op: "save", Err: fmt.Errorf("encoding tasks: %w", err)}
	}
	if err := s.slot.Write(ctx, s.name, data); err != nil {
		return &model.StorageError{Op: "save", Err: err}
	}
	return nil
}

// Insert builds a task from in and prepends it to the collection.
func (s *LocalStore) Insert(ctx context.Context, in model.NewTask) (model.Task, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}

	tasks, err := s.LoadAll(ctx)
	if err != nil {
		return model.Task{}, err
	}

	task := in.Build(s.newID(), s.now())
	tasks = append([]model.Task{task}, tasks...)

	if err := s.SaveAll(ctx, tasks); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Patch merges p over the task with the given id and returns the result.
// Nothing is persisted when the id is absent.
func (s *LocalStore) Patch(ctx context.Context, id string, p model.Patch) (model.Task, error) {
	if err := p.Validate(); err != nil {
		return model.Task{}, err
	}

	tasks, err := s.LoadAll(ctx)
	if err != nil {
		return model.Task{}, err
	}

	idx := slices.IndexFunc(tasks, func(t model.Task) bool { return t.ID == id })
	if idx < 0 {
		return model.Task{}, &model.NotFoundError{ID: id}
	}

	p.Apply(&tasks[idx], s.now())
	if err := s.SaveAll(ctx, tasks); err != nil {
		return model.Task{}, err
	}
	return tasks[idx], nil
}

// Remove deletes the task with the given id. Unknown ids are ignored.
func (s *LocalStore) Remove(ctx context.Context, id string) error {
	tasks, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}
	tasks = slices.DeleteFunc(tasks, func(t model.Task) bool { return t.ID == id })
	return s.SaveAll(ctx, tasks)
}

// BulkApply applies action to every matching id and persists once.
func (s *LocalStore) BulkApply(ctx context.Context, ids []string, action model.BulkAction) error {
	if !action.Valid() {
		return &model.ValidationError{Field: "action", Message: "unknown bulk action " + string(action)}
	}

	tasks, err := s.LoadAll(ctx)
	if err != nil {
		return err
	}

	targets := make(map[string]bool, len(ids))
	for _, id := range ids {
		targets[id] = true
	}

	switch action {
	case model.BulkDelete:
		tasks = slices.DeleteFunc(tasks, func(t model.Task) bool { return targets[t.ID] })
	case model.BulkComplete, model.BulkUncomplete:
		p := model.CompletedPatch(action == model.BulkComplete)
		now := s.now()
		for i := range tasks {
			if targets[tasks[i].ID] {
				p.Apply(&tasks[i], now)
			}
		}
	}

	return s.SaveAll(ctx, tasks)
}

// Project runs the query engine over the full collection.
func (s *LocalStore) Project(ctx context.Context, q model.Query) (model.Projection, error) {
	tasks, err := s.LoadAll(ctx)
	if err != nil {
		return model.Projection{}, err
	}
	view, stats := query.Apply(tasks, q, s.now())
	return model.Projection{Tasks: view, Stats: stats}, nil
}

// Create implements Backend.
func (s *LocalStore) Create(ctx context.Context, in model.NewTask) (model.Task, error) {
	return s.Insert(ctx, in)
}

// Update implements Backend.
func (s *LocalStore) Update(ctx context.Context, id string, p model.Patch) (model.Task, error) {
	return s.Patch(ctx, id, p)
}

// Delete implements Backend.
func (s *LocalStore) Delete(ctx context.Context, id string) error {
	return s.Remove(ctx, id)
}

// Reset discards the guest collection.
func (s *LocalStore) Reset(ctx context.Context) error {
	return s.SaveAll(ctx, []model.Task{})
}

var _ Backend = (*LocalStore)(nil)
