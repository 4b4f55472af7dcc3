package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fastygo/taskpulse/domain"
	"github.com/fastygo/taskpulse/usecase/view"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printView(w io.Writer, res view.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRIORITY\tCATEGORY\tSTATUS\tDUE")
	for _, t := range res.Tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), t.Title, t.Priority, t.Category, t.Status, formatDue(t.DueDate))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nall %d  active %d  completed %d\n", res.Counts.All, res.Counts.Active, res.Counts.Completed)
	return err
}

func printTask(w io.Writer, t *domain.Task) error {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	_, err := fmt.Fprintf(w, "[%s] %s  %s (%s, %s)\n", mark, t.ID, t.Title, t.Priority, t.Status)
	return err
}

func printStats(w io.Writer, snap *domain.Snapshot, level domain.LevelInfo) error {
	fmt.Fprintf(w, "Level %d  %.1f%%  %d XP to next level\n", level.Level, level.Progress, level.XPToNextLevel)
	fmt.Fprintf(w, "Streak %d (best %d)\n", level.CurrentStreak, level.BestStreak)
	if snap == nil {
		return nil
	}
	fmt.Fprintf(w, "Total XP %d  this week %d/%d  productivity %d\n",
		snap.UserStats.TotalXP, snap.WeeklyMetrics.TasksCompleted, snap.WeeklyMetrics.Goal, snap.ProductivityScore)
	if len(snap.UpcomingDeadlines) > 0 {
		fmt.Fprintln(w, "\nUpcoming:")
		for _, d := range snap.UpcomingDeadlines {
			fmt.Fprintf(w, "  %s  %s (in %d days)\n", formatDue(d.DueDate), d.Title, d.DaysUntilDue)
		}
	}
	if len(snap.Insights) > 0 {
		fmt.Fprintln(w, "\nInsights:")
		for _, s := range snap.Insights {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	return nil
}

var heatLevels = []string{".", "░", "▒", "▓", "█"}

func printHeatmap(w io.Writer, days []domain.HeatmapDay) error {
	rows := make([]strings.Builder, 7)
	for _, d := range days {
		if d.Weekday < 0 || d.Weekday > 6 {
			continue
		}
		level := d.Count
		if level >= len(heatLevels) {
			level = len(heatLevels) - 1
		}
		rows[d.Weekday].WriteString(heatLevels[level])
	}
	names := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	for i := range rows {
		if _, err := fmt.Fprintf(w, "%s %s\n", names[i], rows[i].String()); err != nil {
			return err
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.Local().Format("2006-01-02 15:04")
}
