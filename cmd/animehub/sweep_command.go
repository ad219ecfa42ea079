package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/retention"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete catalog records with no remaining recency signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return ctx.withLockedStore(cmd.Context(), func(cfg *config.Config, s catalog.Store) error {
				sweeper := retention.NewFromConfig(s, cfg, logger)
				report, err := sweeper.Run(cmd.Context(), time.Now(), dryRun)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, sweepJSON(report))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSweepReport(report, shouldColorize(cmd.OutOrStdout())))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the keep/delete plan without deleting")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the sweep report as JSON")
	return cmd
}

type sweepVerdictJSON struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	Keep       bool   `json:"keep"`
	Reason     string `json:"reason,omitempty"`
	Denylisted bool   `json:"denylisted,omitempty"`
}

type sweepReportJSON struct {
	RunID      string             `json:"run_id"`
	DryRun     bool               `json:"dry_run"`
	Scanned    int                `json:"scanned"`
	Kept       int                `json:"kept"`
	Deleted    int                `json:"deleted"`
	Denylisted int                `json:"denylisted"`
	Failed     int                `json:"failed"`
	KeptBy     map[string]int     `json:"kept_by,omitempty"`
	Plan       []sweepVerdictJSON `json:"plan,omitempty"`
}

func sweepJSON(r retention.Report) sweepReportJSON {
	out := sweepReportJSON{
		RunID:      r.RunID,
		DryRun:     r.DryRun,
		Scanned:    r.Scanned,
		Kept:       r.Kept,
		Deleted:    r.Deleted,
		Denylisted: r.Denylisted,
		Failed:     r.Failed,
		KeptBy:     make(map[string]int, len(r.KeptBy)),
	}
	for reason, n := range r.KeptBy {
		out.KeptBy[string(reason)] = n
	}
	if r.DryRun {
		for _, v := range r.Plan.Verdicts {
			out.Plan = append(out.Plan, sweepVerdictJSON{
				ID:         v.SecondaryID,
				Title:      v.Title,
				Status:     string(v.Status),
				Keep:       v.Keep,
				Reason:     string(v.Reason),
				Denylisted: v.Denylisted,
			})
		}
	}
	return out
}

func renderSweepReport(r retention.Report, colorize bool) string {
	title := "Sweep"
	if r.DryRun {
		title = "Sweep (dry run)"
	}
	lines := renderSectionHeader(title, colorize)

	if r.DryRun && len(r.Plan.Verdicts) > 0 {
		rows := make([][]string, 0, len(r.Plan.Verdicts))
		for _, v := range r.Plan.Verdicts {
			action := "delete"
			reason := "no recency signal"
			if v.Keep {
				action = "keep"
				reason = string(v.Reason)
			} else if v.Denylisted {
				reason = "denylisted"
			}
			rows = append(rows, []string{v.SecondaryID, v.Title, displayStatus(v.Status), action, reason})
		}
		lines = append(lines, renderTable([]string{"ID", "Title", "Status", "Action", "Reason"}, rows, nil))
	}

	deletedLabel := "Deleted"
	deleted := r.Deleted
	if r.DryRun {
		deletedLabel = "Would delete"
		deleted = len(r.Plan.Deletions())
	}
	lines = append(lines,
		renderStatusLine("Scanned", statusInfo, fmt.Sprintf("%d", r.Scanned), colorize),
		renderStatusLine("Kept", statusOK, fmt.Sprintf("%d %s", r.Kept, formatKeptBy(r.KeptBy)), colorize),
		renderStatusLine(deletedLabel, statusInfo, fmt.Sprintf("%d", deleted), colorize),
	)
	if r.Failed > 0 {
		lines = append(lines, renderStatusLine("Failed", statusError, fmt.Sprintf("%d", r.Failed), colorize))
	}
	return strings.Join(lines, "\n")
}

func formatKeptBy(counts map[retention.KeepReason]int) string {
	var parts []string
	for _, reason := range retention.KeepReasons() {
		if n := counts[reason]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}
