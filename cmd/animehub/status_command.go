package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"animehub/internal/daemon"
	"animehub/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories, catalog, AniList reachability, and daemon lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Daemon", colorize)
			lock, err := daemon.AcquireLock(cfg.LockPath())
			switch {
			case errors.Is(err, daemon.ErrAlreadyRunning):
				lines = append(lines, renderStatusLine("Lock", statusOK, "held (daemon running)", colorize))
			case err != nil:
				lines = append(lines, renderStatusLine("Lock", statusError, err.Error(), colorize))
			default:
				_ = lock.Unlock()
				lines = append(lines, renderStatusLine("Lock", statusInfo, "free (daemon not running)", colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
}
