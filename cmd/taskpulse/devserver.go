package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/internal/config"
	"github.com/fastygo/taskpulse/internal/devserver"
	"github.com/fastygo/taskpulse/internal/services/lifecycle"
	"github.com/fastygo/taskpulse/pkg/logger"
)

func devserverCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory task service for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFiles...)
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
			if err != nil {
				return err
			}
			defer log.Sync()

			manager := lifecycle.New(cfg.Context.ShutdownTimeout, log)
			appCtx, cancel := manager.Watch(cmd.Context())
			defer cancel()

			srv := devserver.New(devserver.Options{
				Secret:         cfg.JWT.Secret,
				Issuer:         cfg.JWT.Issuer,
				TokenTTL:       cfg.Session.TTL,
				RequestTimeout: 5 * time.Second,
				Logger:         log,
			})
			server := srv.HTTPServer(cfg.AppName)

			errCh := make(chan error, 1)
			go func() {
				log.Info("devserver started", zap.String("address", cfg.DevServerAddress()))
				if err := server.ListenAndServe(cfg.DevServerAddress()); err != nil {
					errCh <- err
					cancel()
				}
			}()
			manager.Register(lifecycle.StageWorkers, "http_server", func(ctx context.Context) error {
				return server.ShutdownWithContext(ctx)
			})

			<-appCtx.Done()
			shutdownErr := manager.Shutdown(context.Background())
			select {
			case err := <-errCh:
				return err
			default:
				return shutdownErr
			}
		},
	}
}
