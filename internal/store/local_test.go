package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/store"
	"github.com/Deepanshu954/TodoFlow/tests/testutil"
)

const slotName = "todoflow_tasks"

// stepClock advances one second per call.
type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newLocal(t *testing.T, slot store.Slot) (*store.LocalStore, *stepClock) {
	t.Helper()
	clock := &stepClock{t: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	n := 0
	s := store.NewLocalStore(slot, slotName,
		store.WithClock(clock.Now),
		store.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("task-%d", n)
		}),
	)
	return s, clock
}

func TestLocalStore_LoadAllEmptySlot(t *testing.T) {
	s, _ := newLocal(t, testutil.NewTestSlot(t))

	tasks, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NotNil(t, tasks)
}

func TestLocalStore_LoadAllCorruptSlotIsEmpty(t *testing.T) {
	ctx := context.Background()
	slot := testutil.NewTestSlot(t)
	require.NoError(t, slot.Write(ctx, slotName, []byte(`{"not":"a list"`)))

	s, _ := newLocal(t, slot)
	tasks, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestLocalStore_SaveAllLoadAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t, testutil.NewTestSlot(t))

	created := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	due := created.Add(72 * time.Hour)
	want := []model.Task{
		{
			ID: "a", Title: "Write report", Description: "Q1 numbers", Priority: model.PriorityHigh,
			Category: &model.Category{ID: "c1", Name: "Work", Color: "#ff0000"},
			DueAt:    &due, Tags: []string{"q1", "finance"}, Position: 3,
			Recurrence: model.RecurrenceMonthly, CreatedAt: created, UpdatedAt: created,
		},
		{
			ID: "b", Title: "Stretch", Completed: true, Priority: model.PriorityLow,
			Tags: []string{}, Recurrence: model.RecurrenceDaily, CreatedAt: created, UpdatedAt: created,
		},
	}

	require.NoError(t, s.SaveAll(ctx, want))
	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.SaveAll(ctx, nil))
	got, err = s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalStore_InsertPrependsWithDefaults(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t, testutil.NewTestSlot(t))

	first, err := s.Insert(ctx, model.NewTask{Title: "first"})
	require.NoError(t, err)
	second, err := s.Insert(ctx, model.NewTask{Title: "  second  "})
	require.NoError(t, err)

	assert.Equal(t, "task-1", first.ID)
	assert.Equal(t, "second", second.Title)
	assert.Equal(t, model.PriorityMedium, second.Priority)
	assert.False(t, second.Completed)
	assert.Equal(t, 0, second.Position)

	tasks, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "task-2", tasks[0].ID)
	assert.Equal(t, "task-1", tasks[1].ID)
}

func TestLocalStore_InsertRejectsBlankTitle(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t, testutil.NewTestSlot(t))
	_, err := s.Insert(ctx, model.NewTask{Title: "keep"})
	require.NoError(t, err)

	for _, title := range []string{"", "   "} {
		_, err := s.Insert(ctx, model.NewTask{Title: title})
		assert.True(t, model.IsValidationError(err))
	}

	tasks, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestLocalStore_PatchMergesAndRestamps(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t, testutil.NewTestSlot(t))
	task, err := s.Insert(ctx, model.NewTask{Title: "draft", Tags: []string{"a"}})
	require.NoError(t, err)

	desc := "with details"
	got, err := s.Patch(ctx, task.ID, model.Patch{Description: &desc})
	require.NoError(t, err)

	assert.Equal(t, "draft", got.Title)
	assert.Equal(t, desc, got.Description)
	assert.Equal(t, []string{"a"}, got.Tags)
	assert.Equal(t, task.CreatedAt, got.CreatedAt)
	assert.True(t, got.UpdatedAt.After(task.UpdatedAt))
}

func TestLocalStore_PatchUnknownIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t, testutil.NewTestSlot(t))

	_, err := s.Patch(ctx, "missing", model.CompletedPatch(true))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLocalStore_Remove(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t, testutil.NewTestSlot(t))
	a, _ := s.Insert(ctx, model.NewTask{Title: "a"})
	b, _ := s.Insert(ctx, model.NewTask{Title: "b"})

	require.NoError(t, s.Remove(ctx, a.ID))
	require.NoError(t, s.Remove(ctx, "never-existed"))

	tasks, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, b.ID, tasks[0].ID)
}

func TestLocalStore_BulkDeleteRemovesExactlyTargets(t *testing.T) {
	cases := map[string][]string{
		"empty":   {},
		"subset":  {"task-1", "task-3"},
		"full":    {"task-1", "task-2", "task-3", "task-4"},
		"unknown": {"task-2", "ghost"},
	}

	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s, _ := newLocal(t, testutil.NewTestSlot(t))
			for i := 0; i < 4; i++ {
				_, err := s.Insert(ctx, model.NewTask{Title: fmt.Sprintf("t%d", i)})
				require.NoError(t, err)
			}
			before, _ := s.LoadAll(ctx)

			require.NoError(t, s.BulkApply(ctx, ids, model.BulkDelete))

			after, err := s.LoadAll(ctx)
			require.NoError(t, err)

			doomed := map[string]bool{}
			for _, id := range ids {
				doomed[id] = true
			}
			var want []model.Task
			for _, task := range before {
				if !doomed[task.ID] {
					want = append(want, task)
				}
			}
			if want == nil {
				want = []model.Task{}
			}
			assert.Equal(t, want, after)
		})
	}
}

func TestLocalStore_BulkCompleteRestampsMatched(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t, testutil.NewTestSlot(t))
	a, _ := s.Insert(ctx, model.NewTask{Title: "a"})
	b, _ := s.Insert(ctx, model.NewTask{Title: "b"})

	require.NoError(t, s.BulkApply(ctx, []string{a.ID}, model.BulkComplete))

	tasks, err := s.LoadAll(ctx)
	require.NoError(t, err)
	byID := map[string]model.Task{}
	for _, task := range tasks {
		byID[task.ID] = task
	}
	assert.True(t, byID[a.ID].Completed)
	assert.True(t, byID[a.ID].UpdatedAt.After(a.UpdatedAt))
	assert.False(t, byID[b.ID].Completed)
	assert.Equal(t, b.UpdatedAt, byID[b.ID].UpdatedAt)

	require.NoError(t, s.BulkApply(ctx, []string{a.ID}, model.BulkUncomplete))
	tasks, _ = s.LoadAll(ctx)
	for _, task := range tasks {
		assert.False(t, task.Completed)
	}
}

func TestLocalStore_WriteFailureIsStorageErrorAndNothingPersists(t *testing.T) {
	ctx := context.Background()
	slot := &testutil.FailingSlot{Slot: testutil.NewTestSlot(t)}
	s, _ := newLocal(t, slot)
	task, err := s.Insert(ctx, model.NewTask{Title: "keep me"})
	require.NoError(t, err)

	slot.FailWrites = true
	_, err = s.Insert(ctx, model.NewTask{Title: "lost"})
	assert.True(t, model.IsStorageError(err))
	assert.ErrorIs(t, err, testutil.ErrQuotaExceeded)

	err = s.BulkApply(ctx, []string{task.ID}, model.BulkDelete)
	assert.True(t, model.IsStorageError(err))

	slot.FailWrites = false
	tasks, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
}

func TestLocalStore_ProjectFiltersViewButNotStats(t *testing.T) {
	ctx := context.Background()
	s, _ := newLocal(t, testutil.NewTestSlot(t))
	a, _ := s.Insert(ctx, model.NewTask{Title: "alpha"})
	_, _ = s.Insert(ctx, model.NewTask{Title: "beta", Priority: model.PriorityHigh})
	_, err := s.Patch(ctx, a.ID, model.CompletedPatch(true))
	require.NoError(t, err)

	p, err := s.Project(ctx, model.Query{Status: model.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, a.ID, p.Tasks[0].ID)
	assert.Equal(t, 2, p.Stats.Total)
	assert.Equal(t, 1, p.Stats.HighPriority)
}
