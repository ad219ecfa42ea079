package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"animehub/internal/daemon"
	"animehub/internal/ingest"
	"animehub/internal/logging"
	"animehub/internal/notifications"
	"animehub/internal/preflight"
	"animehub/internal/retention"
	"animehub/internal/store"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run ingest and sweep cycles on the configured schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			for _, r := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
				logging.WarnWithContext(logger, "preflight check failed", "preflight",
					logging.String("check", r.Name),
					logging.String("detail", r.Detail),
				)
			}

			s, err := store.Open(signalCtx, cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			notifier := notifications.NewService(cfg)
			driver, err := ingest.NewFromConfig(cfg, s, notifier, logger)
			if err != nil {
				_ = s.Close()
				return err
			}
			sweeper := retention.NewFromConfig(s, cfg, logger)

			d, err := daemon.New(daemon.OptionsFromConfig(cfg), driver, sweeper, notifier, logger, s.Close)
			if err != nil {
				_ = s.Close()
				return err
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return err
			}
			logger.Info("waiting for shutdown signal", logging.String("config", ctx.configPath))
			<-signalCtx.Done()
			d.Stop()

			status := d.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "ingest runs=%d failures=%d; sweep runs=%d failures=%d\n",
				status.Ingest.Runs, status.Ingest.Failures, status.Sweep.Runs, status.Sweep.Failures)
			return nil
		},
	}
}
