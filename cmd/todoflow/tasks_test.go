package main

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/service"
)

func TestParseWhen(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-05-01", time.Date(2026, 5, 1, 0, 0, 0, 0, time.Local)},
		{"2026-05-01 14:30", time.Date(2026, 5, 1, 14, 30, 0, 0, time.Local)},
		{"2026-05-01T14:30:00Z", time.Date(2026, 5, 1, 14, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseWhen(tt.in)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v", got)
		})
	}

	for _, empty := range []string{"", "  ", "none"} {
		got, err := parseWhen(empty)
		require.NoError(t, err)
		assert.Nil(t, got, "%q", empty)
	}

	_, err := parseWhen("next tuesday")
	assert.Error(t, err)
}

func TestResolveID(t *testing.T) {
	snap := service.Snapshot{Tasks: []model.Task{
		{ID: "0192aaaa-1111"},
		{ID: "0192aaab-2222"},
		{ID: "0193cccc-3333"},
	}}

	id, err := resolveID(snap, "0193")
	require.NoError(t, err)
	assert.Equal(t, "0193cccc-3333", id)

	id, err = resolveID(snap, "0192aaab-2222")
	require.NoError(t, err)
	assert.Equal(t, "0192aaab-2222", id)

	_, err = resolveID(snap, "0192aa")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveID(snap, "ffff")
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ffff", nf.ID)

	ids, err := resolveIDs(snap, []string{"0193", "0192aaaa"})
	require.NoError(t, err)
	assert.Equal(t, []string{"0193cccc-3333", "0192aaaa-1111"}, ids)
}

func TestParseCategory(t *testing.T) {
	assert.Nil(t, parseCategory("   "))

	c := parseCategory("  Home  Office ")
	require.NotNil(t, c)
	assert.Equal(t, "home-office", c.ID)
	assert.Equal(t, "Home  Office", c.Name)
}

// flagCmd builds a command with the edit flags and parses args into it.
func flagCmd(t *testing.T, args ...string) (*cobra.Command, *taskFlags, *string) {
	t.Helper()
	var f taskFlags
	var title string
	cmd := &cobra.Command{Use: "edit"}
	cmd.Flags().StringVar(&title, "title", "", "")
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, &f, &title
}

func TestTaskFlags_PatchOnlyChangedFields(t *testing.T) {
	cmd, f, title := flagCmd(t, "--title", "Ship it", "-p", "high", "--tags", "work,urgent")

	p, err := f.patch(cmd, *title)
	require.NoError(t, err)
	require.NotNil(t, p.Title)
	assert.Equal(t, "Ship it", *p.Title)
	require.NotNil(t, p.Priority)
	assert.Equal(t, model.PriorityHigh, *p.Priority)
	require.NotNil(t, p.Tags)
	assert.Equal(t, []string{"work", "urgent"}, *p.Tags)

	assert.Nil(t, p.Description)
	assert.Nil(t, p.Category)
	assert.Nil(t, p.DueAt)
	assert.Nil(t, p.Recurrence)
}

func TestTaskFlags_PatchClears(t *testing.T) {
	cmd, f, title := flagCmd(t, "--due", "none", "--category", "")

	p, err := f.patch(cmd, *title)
	require.NoError(t, err)
	require.NotNil(t, p.DueAt)
	assert.True(t, p.DueAt.IsZero())
	require.NotNil(t, p.Category)
	assert.Empty(t, p.Category.ID)
}

func TestTaskFlags_PatchRejectsBadInput(t *testing.T) {
	cmd, f, title := flagCmd(t, "--title", "  ")
	_, err := f.patch(cmd, *title)
	assert.Equal(t, model.KindValidation, model.KindOf(err))

	cmd, f, title = flagCmd(t, "--priority", "urgent")
	_, err = f.patch(cmd, *title)
	assert.Equal(t, model.KindValidation, model.KindOf(err))

	cmd, f, title = flagCmd(t, "--due", "soon")
	_, err = f.patch(cmd, *title)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	assert.Contains(t, describe(model.ErrNoSession), "todoflow login")
}

func TestPriorityFilter(t *testing.T) {
	p, err := priorityFilter("")
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = priorityFilter(" High ")
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, p)

	_, err = priorityFilter("foo")
	assert.ErrorContains(t, err, `unknown priority "foo"`)
}
