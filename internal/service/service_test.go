package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/service"
	"github.com/Deepanshu954/TodoFlow/internal/session"
	"github.com/Deepanshu954/TodoFlow/internal/store"
	"github.com/Deepanshu954/TodoFlow/tests/testutil"
)

var epoch = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// tokenAuth signs a token whose subject is the email.
type tokenAuth struct{}

func (tokenAuth) SignIn(_ context.Context, email, _ string) (string, error) {
	claims := jwt.MapClaims{"sub": email, "email": email, "exp": epoch.Add(24 * time.Hour).Unix()}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
}

func (a tokenAuth) SignUp(ctx context.Context, email, password string) (string, error) {
	return a.SignIn(ctx, email, password)
}

// recorder collects notifier calls.
type recorder struct {
	mu       sync.Mutex
	success  []string
	failures []string
}

func (r *recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success = append(r.success, msg)
}

func (r *recorder) Failure(msg string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, msg)
}

type fixture struct {
	svc      *service.TaskService
	sessions *session.Provider
	notes    *recorder
	slot     store.Slot
	remote   map[string]*store.LocalStore
}

func clock() func() time.Time {
	t := epoch
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := clock()
	slot := testutil.NewTestSlot(t)
	f := &fixture{
		sessions: session.NewProvider(tokenAuth{}, &testutil.MemoryTokenStore{},
			session.WithClock(func() time.Time { return epoch })),
		notes:  &recorder{},
		slot:   slot,
		remote: map[string]*store.LocalStore{},
	}
	guest := store.NewLocalStore(slot, model.DefaultSlotName, store.WithClock(now))
	f.svc = service.New(f.sessions, service.Backends{
		Guest: guest,
		Remote: func(id session.Identity) store.Backend {
			s, ok := f.remote[id.UserID]
			if !ok {
				s = store.NewLocalStore(slot, "user:"+id.UserID, store.WithClock(now))
				f.remote[id.UserID] = s
			}
			return s
		},
	}, service.WithNotifier(f.notes))
	t.Cleanup(f.svc.Close)
	return f
}

func (f *fixture) guest(t *testing.T) {
	t.Helper()
	_, err := f.sessions.SkipAuth(context.Background())
	require.NoError(t, err)
}

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestService_NoSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, model.NewTask{Title: "x"})
	assert.ErrorIs(t, err, model.ErrNoSession)
	assert.ErrorIs(t, f.svc.Refresh(ctx), model.ErrNoSession)
	assert.ErrorIs(t, f.svc.ClearCompleted(ctx), model.ErrNoSession)
	assert.Equal(t, session.ModeUnset, f.svc.Snapshot().Mode)
	assert.NotEmpty(t, f.notes.failures)
}

func TestService_AddAppearsOnceWithDefaults(t *testing.T) {
	f := newFixture(t)
	f.guest(t)
	ctx := context.Background()

	for i, title := range []string{"a", "Buy milk", "  padded  ", "ünïcode"} {
		task, err := f.svc.Add(ctx, model.NewTask{Title: title})
		require.NoError(t, err)

		snap := f.svc.Snapshot()
		assert.Len(t, snap.Tasks, i+1)
		matches := 0
		for _, got := range snap.Tasks {
			if got.ID == task.ID {
				matches++
				assert.False(t, got.Completed)
				assert.Equal(t, model.PriorityMedium, got.Priority)
			}
		}
		assert.Equal(t, 1, matches)
	}
	assert.Equal(t, []string{"Task added", "Task added", "Task added", "Task added"}, f.notes.success)
}

func TestService_AddBlankTitleLeavesCollection(t *testing.T) {
	f := newFixture(t)
	f.guest(t)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, model.NewTask{Title: "keep"})
	require.NoError(t, err)

	for _, title := range []string{"", "   "} {
		_, err := f.svc.Add(ctx, model.NewTask{Title: title})
		assert.True(t, model.IsValidationError(err))
	}
	require.NoError(t, f.svc.Refresh(ctx))
	assert.Len(t, f.svc.Snapshot().Tasks, 1)
	assert.Len(t, f.notes.failures, 2)
}

func TestService_ToggleTwiceRestoresAndAdvancesUpdatedAt(t *testing.T) {
	f := newFixture(t)
	f.guest(t)
	ctx := context.Background()
	task, err := f.svc.Add(ctx, model.NewTask{Title: "flip"})
	require.NoError(t, err)

	once, err := f.svc.Toggle(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, once.Completed)
	assert.True(t, once.UpdatedAt.After(task.UpdatedAt))

	twice, err := f.svc.Toggle(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, twice.Completed)
	assert.True(t, twice.UpdatedAt.After(once.UpdatedAt))
}

func TestService_ToggleUnknownIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.guest(t)

	_, err := f.svc.Toggle(context.Background(), "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestService_BulkSelectedDeletesAndClearsSelection(t *testing.T) {
	f := newFixture(t)
	f.guest(t)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 4; i++ {
		task, err := f.svc.Add(ctx, model.NewTask{Title: fmt.Sprintf("t%d", i)})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	f.svc.Select(ids[0])
	f.svc.ToggleSelect(ids[2])
	f.svc.ToggleSelect(ids[3])
	f.svc.Deselect(ids[3])
	snap := f.svc.Snapshot()
	assert.True(t, snap.IsSelected(ids[0]))
	assert.True(t, snap.IsSelected(ids[2]))
	assert.False(t, snap.IsSelected(ids[3]))

	require.NoError(t, f.svc.BulkSelected(ctx, model.BulkDelete))

	snap = f.svc.Snapshot()
	assert.Empty(t, snap.Selected)
	assert.ElementsMatch(t, []string{"t1", "t3"}, titles(snap.Tasks))
	assert.Contains(t, f.notes.success, "2 tasks deleted")
}

func TestService_UnknownBulkActionOnlyClearsSelection(t *testing.T) {
	f := newFixture(t)
	f.guest(t)
	ctx := context.Background()
	task, err := f.svc.Add(ctx, model.NewTask{Title: "stay"})
	require.NoError(t, err)
	f.svc.SelectAll()
	require.Len(t, f.svc.Snapshot().Selected, 1)

	require.NoError(t, f.svc.BulkSelected(ctx, model.BulkAction("archive")))

	snap := f.svc.Snapshot()
	assert.Empty(t, snap.Selected)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, task.ID, snap.Tasks[0].ID)
	assert.Equal(t, []string{"Unknown bulk action"}, f.notes.failures)
}

func TestService_ClearCompleted(t *testing.T) {
	f := newFixture(t)
	f.guest(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ClearCompleted(ctx))

	a, _ := f.svc.Add(ctx, model.NewTask{Title: "done"})
	_, _ = f.svc.Add(ctx, model.NewTask{Title: "open"})
	_, err := f.svc.Toggle(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.ClearCompleted(ctx))
	snap := f.svc.Snapshot()
	assert.Equal(t, []string{"open"}, titles(snap.Tasks))
	assert.Equal(t, 0, snap.Stats.Completed)
}

func TestService_QueryChangesKeepStatsWhole(t *testing.T) {
	f := newFixture(t)
	f.guest(t)
	ctx := context.Background()
	_, _ = f.svc.Add(ctx, model.NewTask{Title: "Write report", Priority: model.PriorityHigh})
	_, _ = f.svc.Add(ctx, model.NewTask{Title: "Call mom", Priority: model.PriorityLow})
	_, _ = f.svc.Add(ctx, model.NewTask{Title: "Review report"})

	require.NoError(t, f.svc.SetSearch(ctx, "REPORT"))
	require.NoError(t, f.svc.SetSort(ctx, model.SortPriority, model.SortDesc))
	snap := f.svc.Snapshot()
	assert.Equal(t, []string{"Write report", "Review report"}, titles(snap.Tasks))
	assert.Equal(t, 3, snap.Stats.Total)

	require.NoError(t, f.svc.SetFilter(ctx, model.StatusHighPriority))
	snap = f.svc.Snapshot()
	assert.Equal(t, []string{"Write report"}, titles(snap.Tasks))
	assert.Equal(t, model.StatusHighPriority, snap.Query.Status)

	require.NoError(t, f.svc.SetQuery(ctx, model.Query{}))
	snap = f.svc.Snapshot()
	assert.Equal(t, model.DefaultQuery(), snap.Query)
	assert.Len(t, snap.Tasks, 3)
	assert.Equal(t, snap.Stats.Total, snap.Stats.Active+snap.Stats.Completed)
}

func TestService_ModeSwitchClearsBeforeFetch(t *testing.T) {
	f := newFixture(t)
	f.guest(t)
	ctx := context.Background()
	for _, title := range []string{"guest one", "guest two"} {
		_, err := f.svc.Add(ctx, model.NewTask{Title: title})
		require.NoError(t, err)
	}
	f.svc.SelectAll()
	require.Len(t, f.svc.Snapshot().Tasks, 2)

	var atFetch []service.Snapshot
	var svc *service.TaskService
	remote := &spyBackend{onProject: func() { atFetch = append(atFetch, svc.Snapshot()) }}
	svc = service.New(f.sessions, service.Backends{
		Guest:  store.NewLocalStore(f.slot, model.DefaultSlotName),
		Remote: func(session.Identity) store.Backend { return remote },
	})
	defer svc.Close()
	require.NoError(t, svc.Refresh(ctx))
	svc.SelectAll()
	require.Len(t, svc.Snapshot().Selected, 2)

	_, err := f.sessions.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)

	require.Len(t, atFetch, 1)
	assert.Equal(t, session.ModeAuthenticated, atFetch[0].Mode)
	assert.Empty(t, atFetch[0].Tasks)
	assert.Empty(t, atFetch[0].Selected)
	assert.Zero(t, atFetch[0].Stats.Total)
	assert.False(t, atFetch[0].Loaded)

	snap := svc.Snapshot()
	assert.Equal(t, []string{"remote"}, titles(snap.Tasks))
	assert.Equal(t, "ada@example.com", snap.Identity.Email)
}

func TestService_IdentitiesAreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sessions.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, model.NewTask{Title: "ada's"})
	require.NoError(t, err)

	_, err = f.sessions.Logout(ctx)
	require.NoError(t, err)
	snap := f.svc.Snapshot()
	assert.Equal(t, session.ModeUnset, snap.Mode)
	assert.Empty(t, snap.Tasks)

	_, err = f.sessions.Login(ctx, "bob@example.com", "pw")
	require.NoError(t, err)
	assert.Empty(t, f.svc.Snapshot().Tasks)

	f.guest(t)
	assert.Empty(t, f.svc.Snapshot().Tasks)
}

func TestService_MissedTransitionIsDetected(t *testing.T) {
	sessions := &staticSessions{state: session.State{Mode: session.ModeGuest, Epoch: 7}}
	slot := testutil.NewTestSlot(t)
	svc := service.New(sessions, service.Backends{Guest: store.NewLocalStore(slot, "s")},
		service.WithNotifier(&recorder{}))

	_, err := svc.Add(context.Background(), model.NewTask{Title: "late"})
	require.NoError(t, err)
	snap := svc.Snapshot()
	assert.Equal(t, session.ModeGuest, snap.Mode)
	assert.Len(t, snap.Tasks, 1)

	sessions.state = session.State{Mode: session.ModeUnset, Epoch: 8}
	assert.ErrorIs(t, svc.Refresh(context.Background()), model.ErrNoSession)
	assert.Empty(t, svc.Snapshot().Tasks)
}

func TestService_BackendFailureIsReportedAndReturned(t *testing.T) {
	boom := &model.RemoteError{Op: "update", StatusCode: 500, Message: "down"}
	sessions := &staticSessions{state: session.State{Mode: session.ModeGuest, Epoch: 1}}
	notes := &recorder{}
	svc := service.New(sessions, service.Backends{Guest: &spyBackend{err: boom}}, service.WithNotifier(notes))

	err := svc.Delete(context.Background(), "x")
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []string{"Failed to delete task"}, notes.failures)
	assert.Empty(t, notes.success)
}

// staticSessions is a Sessions whose state the test sets directly.
type staticSessions struct {
	state session.State
}

func (s *staticSessions) Current() session.State { return s.state }

func (s *staticSessions) Subscribe(session.Listener) func() { return func() {} }

// spyBackend returns one task per projection, or err for mutations.
type spyBackend struct {
	onProject func()
	err       error
}

func (b *spyBackend) Project(context.Context, model.Query) (model.Projection, error) {
	if b.onProject != nil {
		b.onProject()
	}
	tasks := []model.Task{{ID: "r1", Title: "remote", Priority: model.PriorityMedium, Tags: []string{}}}
	return model.Projection{Tasks: tasks, Stats: model.Stats{Total: 1, Active: 1}}, nil
}

func (b *spyBackend) Create(context.Context, model.NewTask) (model.Task, error) {
	return model.Task{}, b.err
}

func (b *spyBackend) Update(context.Context, string, model.Patch) (model.Task, error) {
	return model.Task{}, b.err
}

func (b *spyBackend) Delete(context.Context, string) error { return b.err }

func (b *spyBackend) BulkApply(context.Context, []string, model.BulkAction) error { return b.err }
