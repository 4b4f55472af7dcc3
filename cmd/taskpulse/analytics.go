package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/usecase/session"
)

func statsCmd(envFiles *[]string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show level, streak, weekly progress and insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *envFiles, func(ctx context.Context, sc *session.Context) error {
				if err := sc.Analytics.Refresh(ctx); err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), sc.Analytics.Snapshot())
				}
				return printStats(cmd.OutOrStdout(), sc.Analytics.Snapshot(), sc.Analytics.Level())
			})
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	return cmd
}

func heatmapCmd(envFiles *[]string) *cobra.Command {
	var (
		asJSON       bool
		productivity bool
	)
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Show completions per day over the last twelve weeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *envFiles, func(ctx context.Context, sc *session.Context) error {
				if productivity {
					m, err := sc.Analytics.Productivity(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), m)
				}
				days, err := sc.Analytics.Heatmap(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), days)
				}
				return printHeatmap(cmd.OutOrStdout(), days)
			})
		},
	}
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")
	cmd.Flags().BoolVar(&productivity, "productivity", false, "Show productivity metrics instead")
	return cmd
}

func scheduleCmd(envFiles *[]string) *cobra.Command {
	var (
		params     string
		reschedule string
		at         string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Generate a schedule, or move one task with --reschedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, *envFiles, func(ctx context.Context, sc *session.Context) error {
				if reschedule != "" {
					when, err := parseDue(at)
					if err != nil {
						return err
					}
					id, err := resolveID(sc.Tasks, reschedule)
					if err != nil {
						return err
					}
					out, err := sc.Tasks.RescheduleTask(ctx, id, when, nil)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), json.RawMessage(out))
				}

				req := domain.ScheduleRequest{}
				if params != "" {
					if err := json.Unmarshal([]byte(params), &req); err != nil {
						return fmt.Errorf("--params: %w", err)
					}
				}
				out, err := sc.Tasks.GenerateSchedule(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), json.RawMessage(out))
			})
		},
	}
	cmd.Flags().StringVar(&params, "params", "", "Generator parameters as a JSON object")
	cmd.Flags().StringVar(&reschedule, "reschedule", "", "Task id to move")
	cmd.Flags().StringVar(&at, "at", "", "New time for --reschedule")
	return cmd
}

// watchCmd keeps a session open and reprints the list whenever it changes.
func watchCmd(envFiles *[]string) *cobra.Command {
	var tab, sortKey string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the task list and analytics live until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return withSession(cmd, *envFiles, func(ctx context.Context, sc *session.Context) error {
				sc.Tasks.SetTab(domain.Tab(tab))
				sc.Tasks.SetSort(domain.SortKey(sortKey))

				changed := make(chan struct{}, 1)
				signalChange := func() {
					select {
					case changed <- struct{}{}:
					default:
					}
				}
				unsubscribeTasks := sc.Tasks.Subscribe(signalChange)
				defer unsubscribeTasks()
				unsubscribeStats := sc.Analytics.Subscribe(signalChange)
				defer unsubscribeStats()

				signalChange()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-changed:
						out := cmd.OutOrStdout()
						fmt.Fprint(out, "\033[H\033[2J")
						if err := printView(out, sc.Tasks.View()); err != nil {
							return err
						}
						fmt.Fprintln(out)
						if err := printStats(out, sc.Analytics.Snapshot(), sc.Analytics.Level()); err != nil {
							return err
						}
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&tab, "tab", string(domain.TabActive), "Tab (all, active, completed)")
	cmd.Flags().StringVar(&sortKey, "sort", string(domain.SortDueDate), "Sort key")
	return cmd
}
