package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Deepanshu954/TodoFlow/internal/model"
	"github.com/Deepanshu954/TodoFlow/internal/service"
)

const shortIDLen = 8

func listCmd() *cobra.Command {
	var status, search, sortKey, category, priority string
	var asc bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				q := rt.cfg.DefaultQuery()
				if status != "" {
					q.Status = model.StatusFilter(status)
					if !q.Status.Valid() {
						return fmt.Errorf("unknown status %q (want one of %s)", status, joinValues(model.StatusFilters))
					}
				}
				if sortKey != "" {
					q.Sort = model.SortKey(sortKey)
					if !q.Sort.Valid() {
						return fmt.Errorf("unknown sort %q (want one of %s)", sortKey, joinValues(model.SortKeys))
					}
				}
				if cmd.Flags().Changed("asc") {
					q.Dir = model.SortDesc
					if asc {
						q.Dir = model.SortAsc
					}
				}
				q.Search = search
				q.CategoryID = slug(category)
				p, err := priorityFilter(priority)
				if err != nil {
					return err
				}
				q.Priority = p

				if err := rt.tasks.SetQuery(ctx, q); err != nil {
					return err
				}
				snap := rt.tasks.Snapshot()
				if viper.GetBool("json") {
					return printJSON(model.Projection{Tasks: snap.Tasks, Stats: snap.Stats})
				}
				printTasks(snap.Tasks)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (all, active, completed, high-priority, overdue)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match title or description")
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort key (created_at, updated_at, due_date, priority, text)")
	cmd.Flags().BoolVar(&asc, "asc", false, "sort ascending")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().StringVar(&priority, "priority", "", "only this priority")
	return cmd
}

func printTasks(tasks []model.Task) {
	now := time.Now()
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "", "Title", "Priority", "Due", "Category", "Tags"})
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		due := ""
		if t.DueAt != nil {
			due = t.DueAt.Local().Format("2006-01-02 15:04")
			if t.IsOverdue(now) {
				due += " !"
			}
		}
		category := ""
		if t.Category != nil {
			category = t.Category.Name
		}
		tw.AppendRow(table.Row{shortID(t.ID), done, t.Title, t.Priority, due, category, strings.Join(t.Tags, ", ")})
	}
	tw.Render()
}

type taskFlags struct {
	description string
	priority    string
	due         string
	remind      string
	tags        []string
	category    string
	recurrence  string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "longer description")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVar(&f.due, "due", "", "due date (2006-01-02, 2006-01-02 15:04 or RFC 3339; 'none' clears)")
	cmd.Flags().StringVar(&f.remind, "remind", "", "reminder time, same formats as --due")
	cmd.Flags().StringSliceVarP(&f.tags, "tags", "t", nil, "comma separated tags")
	cmd.Flags().StringVar(&f.category, "category", "", "category name ('' clears)")
	cmd.Flags().StringVar(&f.recurrence, "recurrence", "", "none, daily, weekly, monthly or yearly")
}

func addCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.NewTask{
				Title:       strings.Join(args, " "),
				Description: f.description,
				Priority:    model.Priority(f.priority),
				Tags:        f.tags,
				Recurrence:  model.Recurrence(f.recurrence),
				Category:    parseCategory(f.category),
			}
			var err error
			if in.DueAt, err = parseWhen(f.due); err != nil {
				return err
			}
			if in.RemindAt, err = parseWhen(f.remind); err != nil {
				return err
			}

			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				task, err := rt.tasks.Add(ctx, in)
				if err != nil {
					return err
				}
				return printTask(task)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func editCmd() *cobra.Command {
	var f taskFlags
	var title string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := f.patch(cmd, title)
			if err != nil {
				return err
			}
			if p.Empty() {
				return fmt.Errorf("nothing to change")
			}

			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				id, err := resolveID(rt.tasks.Snapshot(), args[0])
				if err != nil {
					return err
				}
				task, err := rt.tasks.Update(ctx, id, p)
				if err != nil {
					return err
				}
				return printTask(task)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	f.register(cmd)
	return cmd
}

// patch builds a Patch from the flags that were given on the command line.
func (f *taskFlags) patch(cmd *cobra.Command, title string) (model.Patch, error) {
	var p model.Patch
	changed := cmd.Flags().Changed

	if changed("title") {
		p.Title = &title
	}
	if changed("description") {
		p.Description = &f.description
	}
	if changed("priority") {
		prio := model.Priority(f.priority)
		p.Priority = &prio
	}
	if changed("tags") {
		tags := f.tags
		p.Tags = &tags
	}
	if changed("category") {
		c := parseCategory(f.category)
		if c == nil {
			c = &model.Category{}
		}
		p.Category = c
	}
	if changed("recurrence") {
		r := model.Recurrence(f.recurrence)
		p.Recurrence = &r
	}
	if changed("due") {
		due, err := parseWhen(f.due)
		if err != nil {
			return p, err
		}
		p.DueAt = orZero(due)
	}
	if changed("remind") {
		remind, err := parseWhen(f.remind)
		if err != nil {
			return p, err
		}
		p.RemindAt = orZero(remind)
	}
	return p, p.Validate()
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between active and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				id, err := resolveID(rt.tasks.Snapshot(), args[0])
				if err != nil {
					return err
				}
				task, err := rt.tasks.Toggle(ctx, id)
				if err != nil {
					return err
				}
				return printTask(task)
			})
		},
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				ids, err := resolveIDs(rt.tasks.Snapshot(), args)
				if err != nil {
					return err
				}
				if len(ids) == 1 {
					return rt.tasks.Delete(ctx, ids[0])
				}
				return rt.tasks.BulkAction(ctx, ids, model.BulkDelete)
			})
		},
	}
}

func bulkCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "bulk <delete|complete|uncomplete> <id>...",
		Short:     "Apply one action to several tasks",
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{string(model.BulkDelete), string(model.BulkComplete), string(model.BulkUncomplete)},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := model.BulkAction(args[0])
			if !action.Valid() {
				return fmt.Errorf("unknown action %q", args[0])
			}
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				ids, err := resolveIDs(rt.tasks.Snapshot(), args[1:])
				if err != nil {
					return err
				}
				return rt.tasks.BulkAction(ctx, ids, action)
			})
		},
	}
}

func clearCompletedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete every completed task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				return rt.tasks.ClearCompleted(ctx)
			})
		},
	}
}

type statsOutput struct {
	model.Stats
	Productivity int `json:"productivity"`
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts and the productivity score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *runtime) error {
				if err := rt.tasks.Refresh(ctx); err != nil {
					return err
				}
				snap := rt.tasks.Snapshot()
				if viper.GetBool("json") {
					return printJSON(statsOutput{Stats: snap.Stats, Productivity: snap.Productivity})
				}
				printStats(snap)
				return nil
			})
		},
	}
}

func printStats(snap service.Snapshot) {
	s := snap.Stats
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Total", "Active", "Completed", "High priority", "Overdue", "Productivity"})
	tw.AppendRow(table.Row{s.Total, s.Active, s.Completed, s.HighPriority, s.Overdue, fmt.Sprintf("%d%%", snap.Productivity)})
	tw.Render()

	if len(s.Categories) == 0 {
		return
	}
	ct := table.NewWriter()
	ct.SetOutputMirror(os.Stdout)
	ct.AppendHeader(table.Row{"Category", "Tasks", "Completed"})
	for _, c := range s.Categories {
		ct.AppendRow(table.Row{c.Name, c.Count, c.CompletedCount})
	}
	ct.Render()
}

func printTask(t model.Task) error {
	if viper.GetBool("json") {
		return printJSON(t)
	}
	printTasks([]model.Task{t})
	return nil
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// resolveID finds the one loaded task whose id starts with prefix.
func resolveID(snap service.Snapshot, prefix string) (string, error) {
	var match string
	for _, t := range snap.Tasks {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("id %q is ambiguous", prefix)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", &model.NotFoundError{ID: prefix}
	}
	return match, nil
}

func resolveIDs(snap service.Snapshot, prefixes []string) ([]string, error) {
	ids := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		id, err := resolveID(snap, p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var whenLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

// parseWhen reads a user supplied time in local time. Empty and "none"
// yield nil.
func parseWhen(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return nil, nil
	}
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("cannot read %q as a date", s)
}

// orZero turns "no time" into the zero time, which a Patch reads as clear.
func orZero(t *time.Time) *time.Time {
	if t == nil {
		return &time.Time{}
	}
	return t
}

func parseCategory(name string) *model.Category {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &model.Category{ID: slug(name), Name: name}
}

func slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

// priorityFilter parses the --priority flag of list. Empty means any.
func priorityFilter(s string) (model.Priority, error) {
	p := model.Priority(strings.ToLower(strings.TrimSpace(s)))
	if p != "" && !p.Valid() {
		return "", fmt.Errorf("unknown priority %q (want one of low, medium, high)", s)
	}
	return p, nil
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
