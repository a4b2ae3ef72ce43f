// Package service is the single entry point the UIs use for tasks. It hides
// whether the current session is a guest or an authenticated account.
package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/query"
	"github.com/Deepanshu954/TodoFlow/internal/session"
	"github.com/Deepanshu954/TodoFlow/internal/store"
)

// Sessions is the part of the session provider the service depends on.
type Sessions interface {
	Current() session.State
	Subscribe(fn session.Listener) func()
}

// Backends resolves the storage backend for a session.
type Backends struct {
	Guest  store.Backend
	Remote func(id session.Identity) store.Backend
}

func (b Backends) resolve(st session.State) store.Backend {
	switch st.Mode {
	case session.ModeGuest:
		return b.Guest
	case session.ModeAuthenticated:
		if st.Identity != nil && b.Remote != nil {
			return b.Remote(*st.Identity)
		}
	}
	return nil
}

// Snapshot is a read-only copy of the service state.
type Snapshot struct {
	Mode         session.Mode
	Identity     *session.Identity
	Query        model.Query
	Tasks        []model.Task
	Stats        model.Stats
	Selected     []string
	Productivity int
	Loaded       bool
}

// IsSelected reports whether id is in the selection.
func (s Snapshot) IsSelected(id string) bool {
	_, found := slices.BinarySearch(s.Selected, id)
	return found
}

// TaskService is the backend-agnostic task facade.
type TaskService struct {
	sessions    Sessions
	backends    Backends
	notify      Notifier
	unsubscribe func()

	// mu guards the fields below. It is never held across backend calls.
	mu       sync.Mutex
	epoch    uint64
	state    session.State
	backend  store.Backend
	query    model.Query
	tasks    []model.Task
	stats    model.Stats
	loaded   bool
	selected map[string]struct{}
}

// Option customizes a TaskService.
type Option func(*TaskService)

// WithNotifier sets where operation outcomes are reported.
func WithNotifier(n Notifier) Option {
	return func(s *TaskService) { s.notify = n }
}

// WithQuery sets the initial view query.
func WithQuery(q model.Query) Option {
	return func(s *TaskService) { s.query = q.Normalized() }
}

// New returns a service bound to sessions. It subscribes to session
// transitions until Close is called.
func New(sessions Sessions, backends Backends, opts ...Option) *TaskService {
	s := &TaskService{
		sessions: sessions,
		backends: backends,
		notify:   LogNotifier{},
		query:    model.DefaultQuery(),
		selected: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.unsubscribe = sessions.Subscribe(s.onTransition)
	return s
}

// Close stops following session transitions.
func (s *TaskService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// onTransition drops everything belonging to the previous session before
// loading the new one, so no task of one identity is shown under another.
func (s *TaskService) onTransition(ctx context.Context, st session.State) error {
	s.mu.Lock()
	s.resetLocked(st)
	hasBackend := s.backend != nil
	s.mu.Unlock()

	if !hasBackend {
		return nil
	}
	return s.Refresh(ctx)
}

func (s *TaskService) resetLocked(st session.State) {
	s.epoch = st.Epoch
	s.state = st
	s.backend = s.backends.resolve(st)
	s.tasks = nil
	s.stats = model.Stats{}
	s.loaded = false
	s.selected = map[string]struct{}{}
}

// acquire returns the backend of the current session, first resetting if
// a transition happened that this service has not seen.
func (s *TaskService) acquire() (store.Backend, uint64, error) {
	st := s.sessions.Current()

	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Epoch != s.epoch {
		s.resetLocked(st)
	}
	if s.backend == nil {
		return nil, s.epoch, model.ErrNoSession
	}
	return s.backend, s.epoch, nil
}

// Refresh reloads the projection for the current query.
func (s *TaskService) Refresh(ctx context.Context) error {
	if err := s.refresh(ctx); err != nil {
		s.notify.Failure("Failed to load tasks", err)
		return err
	}
	return nil
}

func (s *TaskService) refresh(ctx context.Context) error {
	b, epoch, err := s.acquire()
	if err != nil {
		return err
	}

	s.mu.Lock()
	q := s.query
	s.mu.Unlock()

	p, err := b.Project(ctx, q)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	s.tasks = p.Tasks
	s.stats = p.Stats
	s.loaded = true
	return nil
}

// settle refreshes after a successful mutation and reports the outcome.
func (s *TaskService) settle(ctx context.Context, msg string) error {
	if err := s.refresh(ctx); err != nil {
		s.notify.Failure("Failed to reload tasks", err)
		return err
	}
	s.notify.Success(msg)
	return nil
}

// Add creates a task.
func (s *TaskService) Add(ctx context.Context, in model.NewTask) (model.Task, error) {
	b, _, err := s.acquire()
	if err != nil {
		s.notify.Failure("Failed to add task", err)
		return model.Task{}, err
	}

	task, err := b.Create(ctx, in)
	if err != nil {
		s.notify.Failure("Failed to add task", err)
		return model.Task{}, err
	}
	return task, s.settle(ctx, "Task added")
}

// Update applies p to the task with the given id.
func (s *TaskService) Update(ctx context.Context, id string, p model.Patch) (model.Task, error) {
	b, _, err := s.acquire()
	if err != nil {
		s.notify.Failure("Failed to update task", err)
		return model.Task{}, err
	}

	task, err := b.Update(ctx, id, p)
	if err != nil {
		s.notify.Failure("Failed to update task", err)
		return model.Task{}, err
	}
	return task, s.settle(ctx, "Task updated")
}

// Delete removes the task with the given id.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	b, _, err := s.acquire()
	if err != nil {
		s.notify.Failure("Failed to delete task", err)
		return err
	}

	if err := b.Delete(ctx, id); err != nil {
		s.notify.Failure("Failed to delete task", err)
		return err
	}

	s.mu.Lock()
	delete(s.selected, id)
	s.mu.Unlock()
	return s.settle(ctx, "Task deleted")
}

// Toggle flips the completion state of a task in the loaded projection.
func (s *TaskService) Toggle(ctx context.Context, id string) (model.Task, error) {
	b, _, err := s.acquire()
	if err != nil {
		s.notify.Failure("Failed to update task", err)
		return model.Task{}, err
	}

	s.mu.Lock()
	idx := slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
	var done bool
	if idx >= 0 {
		done = !s.tasks[idx].Completed
	}
	s.mu.Unlock()

	if idx < 0 {
		err := &model.NotFoundError{ID: id}
		s.notify.Failure("Failed to update task", err)
		return model.Task{}, err
	}

	task, err := b.Update(ctx, id, model.CompletedPatch(done))
	if err != nil {
		s.notify.Failure("Failed to update task", err)
		return model.Task{}, err
	}

	msg := "Task reopened"
	if done {
		msg = "Task completed"
	}
	return task, s.settle(ctx, msg)
}

// BulkAction applies action to ids. An unknown action changes nothing but
// still clears the selection and is reported as a failure notice.
func (s *TaskService) BulkAction(ctx context.Context, ids []string, action model.BulkAction) error {
	if !action.Valid() {
		s.ClearSelection()
		s.notify.Failure("Unknown bulk action", &model.ValidationError{
			Field:   "action",
			Message: "unknown bulk action " + string(action),
		})
		return nil
	}

	b, _, err := s.acquire()
	if err != nil {
		s.notify.Failure("Bulk action failed", err)
		return err
	}

	if err := b.BulkApply(ctx, ids, action); err != nil {
		s.notify.Failure("Bulk action failed", err)
		return err
	}

	s.ClearSelection()
	return s.settle(ctx, bulkMessage(action, len(ids)))
}

func bulkMessage(action model.BulkAction, n int) string {
	noun := "tasks"
	if n == 1 {
		noun = "task"
	}
	switch action {
	case model.BulkDelete:
		return fmt.Sprintf("%d %s deleted", n, noun)
	case model.BulkComplete:
		return fmt.Sprintf("%d %s completed", n, noun)
	}
	return fmt.Sprintf("%d %s reopened", n, noun)
}

// BulkSelected applies action to the current selection.
func (s *TaskService) BulkSelected(ctx context.Context, action model.BulkAction) error {
	return s.BulkAction(ctx, s.selectedIDs(), action)
}

// ClearCompleted deletes every completed task in the loaded projection.
func (s *TaskService) ClearCompleted(ctx context.Context) error {
	if _, _, err := s.acquire(); err != nil {
		s.notify.Failure("Failed to clear completed tasks", err)
		return err
	}

	s.mu.Lock()
	var ids []string
	for _, t := range s.tasks {
		if t.Completed {
			ids = append(ids, t.ID)
		}
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	return s.BulkAction(ctx, ids, model.BulkDelete)
}

// SetQuery replaces the view query and reloads.
func (s *TaskService) SetQuery(ctx context.Context, q model.Query) error {
	s.mu.Lock()
	s.query = q.Normalized()
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// SetFilter changes the status filter and reloads.
func (s *TaskService) SetFilter(ctx context.Context, f model.StatusFilter) error {
	q := s.currentQuery()
	q.Status = f
	return s.SetQuery(ctx, q)
}

// SetSearch changes the search text and reloads.
func (s *TaskService) SetSearch(ctx context.Context, text string) error {
	q := s.currentQuery()
	q.Search = text
	return s.SetQuery(ctx, q)
}

// SetSort changes the ordering and reloads.
func (s *TaskService) SetSort(ctx context.Context, key model.SortKey, dir model.SortDir) error {
	q := s.currentQuery()
	q.Sort = key
	q.Dir = dir
	return s.SetQuery(ctx, q)
}

func (s *TaskService) currentQuery() model.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Select adds id to the selection.
func (s *TaskService) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected[id] = struct{}{}
}

// Deselect removes id from the selection.
func (s *TaskService) Deselect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selected, id)
}

// ToggleSelect flips the selection state of id.
func (s *TaskService) ToggleSelect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return
	}
	s.selected[id] = struct{}{}
}

// SelectAll selects every task in the loaded view.
func (s *TaskService) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		s.selected[t.ID] = struct{}{}
	}
}

// ClearSelection empties the selection.
func (s *TaskService) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[string]struct{}{}
}

func (s *TaskService) selectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Snapshot returns a copy of the current state.
func (s *TaskService) Snapshot() Snapshot {
	ids := s.selectedIDs()

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Mode:         s.state.Mode,
		Query:        s.query,
		Tasks:        slices.Clone(s.tasks),
		Stats:        s.stats,
		Selected:     ids,
		Productivity: query.ProductivityScore(s.stats),
		Loaded:       s.loaded,
	}
	if s.state.Identity != nil {
		id := *s.state.Identity
		snap.Identity = &id
	}
	snap.Stats.Categories = slices.Clone(s.stats.Categories)
	return snap
}
