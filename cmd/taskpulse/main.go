package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	var envFiles []string

	rootCmd := &cobra.Command{
		Use:           "taskpulse",
		Short:         "taskpulse - task list, analytics and scheduling client",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "Env files to load (default .env)")

	rootCmd.AddCommand(tasksCmd(&envFiles))
	rootCmd.AddCommand(statsCmd(&envFiles))
	rootCmd.AddCommand(heatmapCmd(&envFiles))
	rootCmd.AddCommand(scheduleCmd(&envFiles))
	rootCmd.AddCommand(watchCmd(&envFiles))
	rootCmd.AddCommand(loginCmd(&envFiles))
	rootCmd.AddCommand(logoutCmd(&envFiles))
	rootCmd.AddCommand(devserverCmd(&envFiles))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
