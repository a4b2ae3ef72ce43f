package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/query"
	"github.com/Deepanshu954/TodoFlow/internal/store"
)

const tasksPath = "/rest/v1/tasks"

// Store is the authenticated-mode backend. The service scopes every
// request to the identity behind the client's token.
type Store struct {
	client *Client
	now    func() time.Time
}

// NewStore returns a backend issuing requests through client, which must
// already carry the user's access token.
func NewStore(client *Client) *Store {
	return &Store{client: client, now: time.Now}
}

// WithClock returns a copy of s using now for overdue checks.
func (s *Store) WithClock(now func() time.Time) *Store {
	cc := *s
	cc.now = now
	return &cc
}

// Query fetches the tasks matching q. The service applies the equality and
// title filters; the overdue predicate and the final ordering are applied
// here with the same engine guest mode uses, so both modes order ties and
// missing dates identically.
func (s *Store) Query(ctx context.Context, q model.Query) ([]model.Task, error) {
	q = q.Normalized()

	var rows []model.Task
	err := s.client.do(ctx, "query", request{
		method: http.MethodGet,
		path:   tasksPath,
		params: queryParams(q),
	}, &rows)
	if err != nil {
		return nil, err
	}

	normalizeRows(rows)
	view := query.Filter(rows, q, s.now())
	query.Sort(view, q.Sort, q.Dir)
	return view, nil
}

// Create inserts a task; the service assigns id and timestamps.
func (s *Store) Create(ctx context.Context, in model.NewTask) (model.Task, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.Task{}, err
	}

	var rows []model.Task
	err := s.client.do(ctx, "create", request{
		method: http.MethodPost,
		path:   tasksPath,
		body:   newTaskPayload(in),
		prefer: "return=representation",
	}, &rows)
	if err != nil {
		return model.Task{}, err
	}
	if len(rows) == 0 {
		return model.Task{}, &model.RemoteError{Op: "create", Message: "service returned no row"}
	}

	normalizeRows(rows)
	return rows[0], nil
}

// Update merges p into the task with the given id. An empty result means
// the id does not exist for the caller.
func (s *Store) Update(ctx context.Context, id string, p model.Patch) (model.Task, error) {
	if err := p.Validate(); err != nil {
		return model.Task{}, err
	}

	var rows []model.Task
	err := s.client.do(ctx, "update", request{
		method: http.MethodPatch,
		path:   tasksPath,
		params: idFilter(id),
		body:   patchPayload(p),
		prefer: "return=representation",
	}, &rows)
	if err != nil {
		return model.Task{}, err
	}
	if len(rows) == 0 {
		return model.Task{}, &model.NotFoundError{ID: id}
	}

	normalizeRows(rows)
	return rows[0], nil
}

// Delete removes one task.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.DeleteMany(ctx, []string{id})
}

// DeleteMany removes every listed task in one request. Partial failures
// are not reported individually.
func (s *Store) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.client.do(ctx, "delete", request{
		method: http.MethodDelete,
		path:   tasksPath,
		params: idFilter(ids...),
	}, nil)
}

// UpdateMany applies p to every listed task in one request.
func (s *Store) UpdateMany(ctx context.Context, ids []string, p model.Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return s.client.do(ctx, "update_many", request{
		method: http.MethodPatch,
		path:   tasksPath,
		params: idFilter(ids...),
		body:   patchPayload(p),
	}, nil)
}

// AggregateStats fetches the caller's whole collection and reduces it
// locally; the service has no aggregation endpoint.
func (s *Store) AggregateStats(ctx context.Context) (model.Stats, error) {
	rows, err := s.fetchAll(ctx, "stats", model.DefaultQuery())
	if err != nil {
		return model.Stats{}, err
	}
	return query.ComputeStats(rows, s.now()), nil
}

// fetchAll returns every task of the caller, ordered by q's sort only.
func (s *Store) fetchAll(ctx context.Context, op string, q model.Query) ([]model.Task, error) {
	q = q.Normalized()
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", sortColumns[q.Sort]+"."+string(q.Dir))

	var rows []model.Task
	err := s.client.do(ctx, op, request{
		method: http.MethodGet,
		path:   tasksPath,
		params: params,
	}, &rows)
	if err != nil {
		return nil, err
	}
	normalizeRows(rows)
	return rows, nil
}

// BulkApply implements store.Backend.
func (s *Store) BulkApply(ctx context.Context, ids []string, action model.BulkAction) error {
	switch action {
	case model.BulkDelete:
		return s.DeleteMany(ctx, ids)
	case model.BulkComplete, model.BulkUncomplete:
		return s.UpdateMany(ctx, ids, model.CompletedPatch(action == model.BulkComplete))
	}
	return &model.ValidationError{Field: "action", Message: "unknown bulk action " + string(action)}
}

// Project implements store.Backend. The view and the stats are derived
// from a single fetch so they always describe the same collection.
func (s *Store) Project(ctx context.Context, q model.Query) (model.Projection, error) {
	rows, err := s.fetchAll(ctx, "query", q)
	if err != nil {
		return model.Projection{}, err
	}
	tasks, stats := query.Apply(rows, q, s.now())
	return model.Projection{Tasks: tasks, Stats: stats}, nil
}

func normalizeRows(rows []model.Task) {
	for i := range rows {
		if rows[i].Tags == nil {
			rows[i].Tags = []string{}
		}
	}
}

var _ store.Backend = (*Store)(nil)
