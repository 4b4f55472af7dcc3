package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func loginCmd(envFiles *[]string) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "login [user-id]",
		Short: "Obtain a token and store the session for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := bootstrap(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer func() {
				if shutdownErr := a.shutdown(); err == nil {
					err = shutdownErr
				}
			}()

			s, err := a.store.Login(cmd.Context(), args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "SESSION_ID=%s\nTASKPULSE_TOKEN=%s\n", s.ID, s.Token)
			if !s.ExpiresAt.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "# expires %s\n", s.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func logoutCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session named by SESSION_ID",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := bootstrap(cmd.Context(), *envFiles)
			if err != nil {
				return err
			}
			defer func() {
				if shutdownErr := a.shutdown(); err == nil {
					err = shutdownErr
				}
			}()
			if a.cfg.Session.SessionID == "" {
				return fmt.Errorf("SESSION_ID is not set")
			}
			return a.store.Revoke(context.Background(), a.cfg.Session.SessionID)
		},
	}
}
