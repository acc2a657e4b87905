package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/resilience/internal/control"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve health and metrics endpoints and prune the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			log := a.initLogging(cmd, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := control.New(ctx, cfg, a.logs, control.Options{Debug: a.debug})
			if err != nil {
				log.Error("Failed to initialize runtime", "error", err)
				return err
			}
			if err := rt.Start(ctx); err != nil {
				log.Error("Failed to start runtime", "error", err)
				return err
			}
			log.Info("Runtime started", "config", a.cfgPath, "port", cfg.Server.Port)

			<-ctx.Done()
			log.Info("Received signal, shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return rt.Stop(shutdownCtx)
		},
	}
}
