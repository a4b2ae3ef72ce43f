package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/remote"
	"github.com/Deepanshu954/TodoFlow/internal/server"
	"github.com/Deepanshu954/TodoFlow/internal/session"
)

const apiKey = "anon-key"

// clock is shared between the test and the server goroutines.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type env struct {
	url    string
	client *remote.Client
	auth   *remote.AuthClient
	clock  *clock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := server.OpenDB(server.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &env{clock: &clock{t: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)}}
	srv, err := server.New(server.Config{JWTSecret: "test-secret", APIKey: apiKey, TokenTTL: time.Hour}, db,
		server.WithClock(e.clock.Now))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	e.url = ts.URL
	e.client = remote.NewClient(ts.URL, apiKey, 5*time.Second)
	e.auth = remote.NewAuthClient(e.client)
	return e
}

// signUp registers email and returns a store acting as that user.
func (e *env) signUp(t *testing.T, email string) (*remote.Store, session.Identity) {
	t.Helper()
	token, err := e.auth.SignUp(context.Background(), email, "correct-horse")
	require.NoError(t, err)
	id, err := session.DecodeToken(token)
	require.NoError(t, err)
	return remote.NewStore(e.client.WithToken(token)).WithClock(e.clock.Now), id
}

func TestServer_Health(t *testing.T) {
	e := newEnv(t)
	resp, err := http.Get(e.url + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_SignUpAndSignIn(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, id := e.signUp(t, "Ada@Example.com")
	assert.Equal(t, "ada@example.com", id.Email)
	assert.NotEmpty(t, id.UserID)
	assert.Equal(t, e.clock.Now().Add(time.Hour), id.ExpiresAt.UTC())

	_, err := e.auth.SignUp(ctx, "ada@example.com", "another-pass")
	var rerr *model.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusUnprocessableEntity, rerr.StatusCode)

	token, err := e.auth.SignIn(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	again, err := session.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.UserID, again.UserID)

	_, err = e.auth.SignIn(ctx, "ada@example.com", "wrong")
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Invalid login credentials", rerr.Message)
}

func TestServer_SignUpRejectsWeakPassword(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.SignUp(context.Background(), "bob@example.com", "123")
	var rerr *model.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusUnprocessableEntity, rerr.StatusCode)
}

func TestServer_RejectsMissingAPIKeyAndToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := remote.NewAuthClient(remote.NewClient(e.url, "wrong", time.Second)).SignIn(ctx, "a@b.c", "x")
	var rerr *model.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.True(t, rerr.IsAuth())

	_, err = remote.NewStore(e.client).Query(ctx, model.DefaultQuery())
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusUnauthorized, rerr.StatusCode)

	_, err = remote.NewStore(e.client.WithToken("garbage")).Query(ctx, model.DefaultQuery())
	require.ErrorAs(t, err, &rerr)
	assert.True(t, rerr.IsAuth())
}

func TestServer_ExpiredTokenIsRejected(t *testing.T) {
	e := newEnv(t)
	s, _ := e.signUp(t, "ada@example.com")

	e.clock.Advance(2 * time.Hour)
	_, err := s.Query(context.Background(), model.DefaultQuery())
	var rerr *model.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.True(t, rerr.IsAuth())
}

func TestServer_TaskLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	s, _ := e.signUp(t, "ada@example.com")

	due := e.clock.Now().Add(-time.Hour)
	report, err := s.Create(ctx, model.NewTask{
		Title:    "Write report",
		Priority: model.PriorityHigh,
		Category: &model.Category{ID: "work", Name: "Work", Color: "#ff0000"},
		DueAt:    &due,
		Tags:     []string{"q3", "q3", "finance"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, []string{"q3", "finance"}, report.Tags)
	assert.Equal(t, "Work", report.Category.Name)

	e.clock.Advance(time.Minute)
	walk, err := s.Create(ctx, model.NewTask{Title: "Walk", Priority: model.PriorityLow})
	require.NoError(t, err)

	_, err = s.Create(ctx, model.NewTask{Title: "   "})
	assert.True(t, model.IsValidationError(err))

	all, err := s.Query(ctx, model.DefaultQuery())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, walk.ID, all[0].ID)

	overdue, err := s.Query(ctx, model.Query{Status: model.StatusOverdue})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, report.ID, overdue[0].ID)

	byCategory, err := s.Query(ctx, model.Query{CategoryID: "work"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)

	search, err := s.Query(ctx, model.Query{Search: "REPORT"})
	require.NoError(t, err)
	require.Len(t, search, 1)

	e.clock.Advance(time.Minute)
	done := true
	none := time.Time{}
	updated, err := s.Update(ctx, report.ID, model.Patch{Completed: &done, DueAt: &none})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Nil(t, updated.DueAt)
	assert.True(t, updated.UpdatedAt.After(report.UpdatedAt))
	assert.Equal(t, report.CreatedAt, updated.CreatedAt)

	_, err = s.Update(ctx, "no-such-id", model.CompletedPatch(true))
	assert.ErrorIs(t, err, model.ErrNotFound)

	stats, err := s.AggregateStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 0, stats.Overdue)

	require.NoError(t, s.BulkApply(ctx, []string{report.ID, walk.ID}, model.BulkUncomplete))
	require.NoError(t, s.Delete(ctx, walk.ID))
	left, err := s.Query(ctx, model.DefaultQuery())
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.False(t, left[0].Completed)
}

func TestServer_UsersAreIsolated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada, _ := e.signUp(t, "ada@example.com")
	bob, _ := e.signUp(t, "bob@example.com")

	task, err := ada.Create(ctx, model.NewTask{Title: "private"})
	require.NoError(t, err)

	bobs, err := bob.Query(ctx, model.DefaultQuery())
	require.NoError(t, err)
	assert.Empty(t, bobs)

	_, err = bob.Update(ctx, task.ID, model.CompletedPatch(true))
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, bob.Delete(ctx, task.ID))
	adas, err := ada.Query(ctx, model.DefaultQuery())
	require.NoError(t, err)
	assert.Len(t, adas, 1)
}

func TestServer_FilterValidation(t *testing.T) {
	e := newEnv(t)
	token, err := e.auth.SignUp(context.Background(), "ada@example.com", "correct-horse")
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		query  string
		status int
	}{
		{"unknown column", http.MethodGet, "user_id=eq.x", http.StatusBadRequest},
		{"unknown operator", http.MethodGet, "title=regex.x", http.StatusBadRequest},
		{"bad bool", http.MethodGet, "completed=eq.maybe", http.StatusBadRequest},
		{"bad order", http.MethodGet, "order=password.asc", http.StatusBadRequest},
		{"repeated filters", http.MethodGet, "priority=eq.high&priority=eq.low", http.StatusOK},
		{"in list", http.MethodGet, `id=in.("a","b")`, http.StatusOK},
		{"unfiltered delete", http.MethodDelete, "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, e.url+"/rest/v1/tasks?"+tt.query, nil)
			require.NoError(t, err)
			req.Header.Set("apikey", apiKey)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == http.StatusBadRequest {
				var body struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.NotEmpty(t, body.Code)
			}
		})
	}
}

func TestServer_PatchRejectsUnknownColumn(t *testing.T) {
	e := newEnv(t)
	token, err := e.auth.SignUp(context.Background(), "ada@example.com", "correct-horse")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPatch, e.url+"/rest/v1/tasks?id=eq.x", strings.NewReader(`{"user_id":"someone"}`))
	require.NoError(t, err)
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "user_id")
}
