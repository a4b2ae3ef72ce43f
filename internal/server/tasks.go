package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Deepanshu954/TodoFlow/internal/model"
)

const maxBodyBytes = 1 << 20

// taskRow is the tasks table row.
type taskRow struct {
	ID            string     `db:"id"`
	UserID        string     `db:"user_id"`
	Title         string     `db:"title"`
	Description   string     `db:"description"`
	Completed     bool       `db:"completed"`
	Priority      string     `db:"priority"`
	CategoryID    *string    `db:"category_id"`
	CategoryName  *string    `db:"category_name"`
	CategoryColor *string    `db:"category_color"`
	DueDate       *time.Time `db:"due_date"`
	ReminderAt    *time.Time `db:"reminder_at"`
	Tags          string     `db:"tags"`
	Position      int        `db:"position"`
	Recurrence    string     `db:"recurrence"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r taskRow) toTask() model.Task {
	t := model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    model.Priority(r.Priority),
		DueAt:       utcPtr(r.DueDate),
		RemindAt:    utcPtr(r.ReminderAt),
		Position:    r.Position,
		Recurrence:  model.Recurrence(r.Recurrence),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.CategoryID != nil {
		t.Category = &model.Category{ID: *r.CategoryID, Name: deref(r.CategoryName), Color: deref(r.CategoryColor)}
	}
	if err := json.Unmarshal([]byte(r.Tags), &t.Tags); err != nil || t.Tags == nil {
		t.Tags = []string{}
	}
	return t
}

func rowFromTask(userID string, t model.Task) taskRow {
	tags, _ := json.Marshal(model.NormalizeTags(t.Tags))
	r := taskRow{
		ID:          t.ID,
		UserID:      userID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		DueDate:     utcPtr(t.DueAt),
		ReminderAt:  utcPtr(t.RemindAt),
		Tags:        string(tags),
		Position:    t.Position,
		Recurrence:  string(t.Recurrence),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	if t.Category != nil {
		r.CategoryID = &t.Category.ID
		r.CategoryName = &t.Category.Name
		r.CategoryColor = &t.Category.Color
	}
	return r
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// taskInput is one insert body item.
type taskInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Completed   bool             `json:"completed"`
	Priority    model.Priority   `json:"priority"`
	Category    *model.Category  `json:"category"`
	DueAt       *time.Time       `json:"due_date"`
	RemindAt    *time.Time       `json:"reminder_at"`
	Tags        []string         `json:"tags"`
	Position    int              `json:"position"`
	Recurrence  model.Recurrence `json:"recurrence"`
}

func (in taskInput) build(id string, now time.Time) (model.Task, error) {
	nt := model.NewTask{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Category:    in.Category,
		DueAt:       in.DueAt,
		RemindAt:    in.RemindAt,
		Tags:        in.Tags,
		Position:    in.Position,
		Recurrence:  in.Recurrence,
	}.Normalize()
	if err := nt.Validate(); err != nil {
		return model.Task{}, err
	}
	t := nt.Build(id, now)
	t.Completed = in.Completed
	return t, nil
}

// decodeInputs accepts a single object or an array of objects.
func decodeInputs(body []byte) ([]taskInput, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var many []taskInput
		if err := json.Unmarshal(body, &many); err != nil {
			return nil, badRequest("invalid JSON body")
		}
		return many, nil
	}
	var one taskInput
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, badRequest("invalid JSON body")
	}
	return []taskInput{one}, nil
}

// decodePatch reads a partial body. An explicit null clears an optional
// field; unknown keys are rejected.
func decodePatch(body []byte) (model.Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return model.Patch{}, badRequest("invalid JSON body")
	}

	var p model.Patch
	for key, val := range raw {
		isNull := string(bytes.TrimSpace(val)) == "null"
		var err error
		switch key {
		case "title":
			p.Title = new(string)
			err = json.Unmarshal(val, p.Title)
		case "description":
			p.Description = new(string)
			err = json.Unmarshal(val, p.Description)
		case "completed":
			p.Completed = new(bool)
			err = json.Unmarshal(val, p.Completed)
		case "priority":
			p.Priority = new(model.Priority)
			err = json.Unmarshal(val, p.Priority)
		case "category":
			p.Category = &model.Category{}
			if !isNull {
				err = json.Unmarshal(val, p.Category)
			}
		case "due_date":
			p.DueAt = &time.Time{}
			if !isNull {
				err = json.Unmarshal(val, p.DueAt)
			}
		case "reminder_at":
			p.RemindAt = &time.Time{}
			if !isNull {
				err = json.Unmarshal(val, p.RemindAt)
			}
		case "tags":
			tags := []string{}
			if !isNull {
				err = json.Unmarshal(val, &tags)
			}
			p.Tags = &tags
		case "position":
			p.Position = new(int)
			err = json.Unmarshal(val, p.Position)
		case "recurrence":
			p.Recurrence = new(model.Recurrence)
			err = json.Unmarshal(val, p.Recurrence)
		default:
			return model.Patch{}, badRequest(fmt.Sprintf("column %q cannot be updated", key))
		}
		if err != nil {
			return model.Patch{}, badRequest(fmt.Sprintf("invalid value for %s", key))
		}
	}

	if err := p.Validate(); err != nil {
		return model.Patch{}, err
	}
	return p, nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest("unreadable request body")
	}
	return body, nil
}

func wantsRepresentation(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Prefer"), "return=representation")
}

func toTasks(rows []taskRow) []model.Task {
	tasks := make([]model.Task, len(rows))
	for i, row := range rows {
		tasks[i] = row.toTask()
	}
	return tasks
}

// selectRows returns the caller's rows matching sel.
func (s *Server) selectRows(ctx context.Context, q sqlx.QueryerContext, userID string, sel selection) ([]taskRow, error) {
	query := "SELECT * FROM tasks WHERE user_id = ?" + sel.clause()
	if len(sel.order) > 0 {
		query += " ORDER BY " + strings.Join(sel.order, ", ")
	}
	switch {
	case sel.limit > 0:
		query += fmt.Sprintf(" LIMIT %d", sel.limit)
	case sel.offset > 0 && s.db.DriverName() == DriverSQLite:
		// SQLite has no OFFSET without LIMIT.
		query += " LIMIT -1"
	}
	if sel.offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", sel.offset)
	}

	args := append([]any{userID}, sel.args...)
	rows := []taskRow{}
	if err := sqlx.SelectContext(ctx, q, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("selecting tasks: %w", err)
	}
	return rows, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	rows, err := s.selectRows(r.Context(), s.db, userIDFromContext(r.Context()), sel)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toTasks(rows))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	inputs, err := decodeInputs(body)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	now := s.now().UTC()
	userID := userIDFromContext(r.Context())
	tasks := make([]model.Task, 0, len(inputs))
	for _, in := range inputs {
		t, err := in.build(uuid.NewString(), now)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		tasks = append(tasks, t)
	}

	err = s.inTx(r.Context(), func(tx *sqlx.Tx) error {
		for _, t := range tasks {
			if _, err := tx.NamedExecContext(r.Context(), insertTaskSQL, rowFromTask(userID, t)); err != nil {
				return fmt.Errorf("inserting task: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	if wantsRepresentation(r) {
		writeJSON(w, http.StatusCreated, tasks)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

const insertTaskSQL = `
	INSERT INTO tasks (
		id, user_id, title, description, completed, priority,
		category_id, category_name, category_color,
		due_date, reminder_at, tags, position, recurrence,
		created_at, updated_at
	) VALUES (
		:id, :user_id, :title, :description, :completed, :priority,
		:category_id, :category_name, :category_color,
		:due_date, :reminder_at, :tags, :position, :recurrence,
		:created_at, :updated_at
	)`

const updateTaskSQL = `
	UPDATE tasks SET
		title = :title, description = :description, completed = :completed,
		priority = :priority, category_id = :category_id,
		category_name = :category_name, category_color = :category_color,
		due_date = :due_date, reminder_at = :reminder_at, tags = :tags,
		position = :position, recurrence = :recurrence, updated_at = :updated_at
	WHERE id = :id AND user_id = :user_id`

// handleUpdate merges the body into every matching row. Rows are read,
// patched and written back in one transaction so the stored rows follow
// the same merge rules as the local store.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if !sel.hasFilter() {
		writeError(w, s.log, badRequest("update requires a filter"))
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	patch, err := decodePatch(body)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	userID := userIDFromContext(r.Context())
	var updated []model.Task
	err = s.inTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := s.selectRows(r.Context(), tx, userID, sel)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		for _, row := range rows {
			t := row.toTask()
			patch.Apply(&t, now)
			if _, err := tx.NamedExecContext(r.Context(), updateTaskSQL, rowFromTask(userID, t)); err != nil {
				return fmt.Errorf("updating task %s: %w", t.ID, err)
			}
			updated = append(updated, t)
		}
		return nil
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	if wantsRepresentation(r) {
		if updated == nil {
			updated = []model.Task{}
		}
		writeJSON(w, http.StatusOK, updated)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	if !sel.hasFilter() {
		writeError(w, s.log, badRequest("delete requires a filter"))
		return
	}

	userID := userIDFromContext(r.Context())
	var deleted []taskRow
	err = s.inTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := s.selectRows(r.Context(), tx, userID, sel)
		if err != nil {
			return err
		}
		deleted = rows
		query := "DELETE FROM tasks WHERE user_id = ?" + sel.clause()
		args := append([]any{userID}, sel.args...)
		if _, err := tx.ExecContext(r.Context(), tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("deleting tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	if wantsRepresentation(r) {
		writeJSON(w, http.StatusOK, toTasks(deleted))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Server) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
