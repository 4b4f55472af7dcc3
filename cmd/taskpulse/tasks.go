package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/usecase/session"
	"github.com/fastygo/taskpulse/usecase/task"
)

// withSession runs fn inside a live session and shuts everything down afterwards.
func withSession(cmd *cobra.Command, envFiles []string, fn func(ctx context.Context, sc *session.Context) error) (err error) {
	ctx := cmd.Context()
	a, err := bootstrap(ctx, envFiles)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := a.shutdown(); err == nil {
			err = shutdownErr
		}
	}()

	sc, err := a.begin(ctx)
	if err != nil {
		return err
	}
	if loadErr := sc.Tasks.Err(); loadErr != nil {
		return loadErr
	}
	return fn(ctx, sc)
}

func tasksCmd(envFiles *[]string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and change tasks",
	}
	cmd.AddCommand(tasksListCmd(envFiles))
	cmd.AddCommand(tasksAddCmd(envFiles))
	cmd.AddCommand(tasksEditCmd(envFiles))
	cmd.AddCommand(tasksDoneCmd(envFiles))
	cmd.AddCommand(tasksMoveCmd(envFiles))
	cmd.AddCommand(tasksRmCmd(envFiles))
	return cmd
}

func tasksListCmd(envFiles *[]string) *cobra.Command {
	var (
		tab, sortKey, search, category, status string
		priority                               int
		asJSON                                 bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the filtered and sorted task list with tab counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *envFiles, func(ctx context.Context, sc *session.Context) error {
				var f domain.Filter
				if priority > 0 {
					f.Priority = domain.PriorityPtr(domain.Priority(priority))
				}
				if category != "" {
					f.Category = domain.StringPtr(category)
				}
				if status != "" {
					f.Status = domain.StatusPtr(domain.Status(status))
				}
				sc.Tasks.SetFilter(f)
				sc.Tasks.SetSearch(search)
				sc.Tasks.SetTab(domain.Tab(tab))
				sc.Tasks.SetSort(domain.SortKey(sortKey))

				res := sc.Tasks.View()
				if asJSON {
					return printJSON(cmd.OutOrStdout(), res)
				}
				return printView(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&tab, "tab", string(domain.TabAll), "Tab (all, active, completed)")
	cmd.Flags().StringVar(&sortKey, "sort", string(domain.SortDueDate), "Sort key (due_date, priority, title, created_at)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive search in title and description")
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "Only this priority (1-3)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only this category")
	cmd.Flags().StringVar(&status, "status", "", "Only this status (todo, in_progress, completed)")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}

func tasksAddCmd(envFiles *[]string) *cobra.Command {
	var (
		draft domain.TaskDraft
		due   string
		prio  int
	)
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Title = strings.Join(args, " ")
			draft.Priority = domain.Priority(prio)
			if due != "" {
				t, err := parseDue(due)
				if err != nil {
					return err
				}
				draft.DueDate = &t
			}
			return withSession(cmd, *envFiles, func(ctx context.Context, sc *session.Context) error {
				created, err := sc.Tasks.Create(ctx, draft)
				if err != nil {
					return err
				}
				return printTask(cmd.OutOrStdout(), created)
			})
		},
	}
	cmd.Flags().StringVarP(&draft.Description, "description", "d", "", "Description")
	cmd.Flags().IntVarP(&prio, "priority", "p", 0, "Priority 1-3 (default 2)")
	cmd.Flags().StringVarP(&draft.Category, "category", "c", "", "Category (work, study, personal, health, other)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (RFC3339, 2006-01-02 or 2006-01-02 15:04)")
	cmd.Flags().IntVar(&draft.EstimatedDuration, "duration", 0, "Estimated minutes (default 30)")
	cmd.Flags().IntVar(&draft.EnergyLevel, "energy", 0, "Energy level 0-5")
	return cmd
}

func tasksEditCmd(envFiles *[]string) *cobra.Command {
	var (
		title, description, category, due string
		prio                              int
		clearDue                          bool
	)
	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var changes domain.TaskChanges
			flags := cmd.Flags()
			if flags.Changed("title") {
				changes.Title = &title
			}
			if flags.Changed("description") {
				changes.Description = &description
			}
			if flags.Changed("category") {
				changes.Category = &category
			}
			if flags.Changed("priority") {
				changes.Priority = domain.PriorityPtr(domain.Priority(prio))
			}
			if due != "" {
				t, err := parseDue(due)
				if err != nil {
					return err
				}
				changes.DueDate = &t
			}
			changes.ClearDueDate = clearDue
			return withSession(cmd, *envFiles, func(ctx context.Context, sc *session.Context) error {
				id, err := resolveID(sc.Tasks, args[0])
				if err != nil {
					return err
				}
				updated, err := sc.Tasks.Update(ctx, id, changes)
				if err != nil {
					return err
				}
				return printTask(cmd.OutOrStdout(), updated)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "New category")
	cmd.Flags().IntVarP(&prio, "priority", "p", 0, "New priority 1-3")
	cmd.Flags().StringVar(&due, "due", "", "New due date")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	return cmd
}

func tasksDoneCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "done [id]",
		Short: "Toggle completion of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *envFiles, func(ctx context.Context, sc *session.Context) error {
				id, err := resolveID(sc.Tasks, args[0])
				if err != nil {
					return err
				}
				toggled, err := sc.Tasks.ToggleComplete(ctx, id)
				if err != nil {
					return err
				}
				if err := printTask(cmd.OutOrStdout(), toggled); err != nil {
					return err
				}
				if toggled.Completed {
					level := sc.Analytics.Level()
					fmt.Fprintf(cmd.OutOrStdout(), "+%d XP, level %d (%.1f%%)\n",
						domain.XPForPriority(toggled.Priority), level.Level, level.Progress)
				}
				return nil
			})
		},
	}
}

func tasksMoveCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "move [id] [status]",
		Short: "Move a task to todo, in_progress or completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *envFiles, func(ctx context.Context, sc *session.Context) error {
				id, err := resolveID(sc.Tasks, args[0])
				if err != nil {
					return err
				}
				moved, err := sc.Tasks.MoveTask(ctx, id, domain.Status(args[1]))
				if err != nil {
					return err
				}
				return printTask(cmd.OutOrStdout(), moved)
			})
		},
	}
}

func tasksRmCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *envFiles, func(ctx context.Context, sc *session.Context) error {
				id, err := resolveID(sc.Tasks, args[0])
				if err != nil {
					return err
				}
				if err := sc.Tasks.Delete(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
				return nil
			})
		},
	}
}

// resolveID accepts a full id or an unambiguous prefix of one.
func resolveID(store *task.UseCase, prefix string) (string, error) {
	var match string
	for _, t := range store.Tasks() {
		if t.ID == prefix {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			if match != "" {
				return "", domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("id prefix %q is ambiguous", prefix))
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", domain.ErrTaskNotFound
	}
	return match, nil
}

func parseDue(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	if days, err := strconv.Atoi(strings.TrimPrefix(value, "+")); err == nil {
		return time.Now().AddDate(0, 0, days), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised due date %q", value)
}
