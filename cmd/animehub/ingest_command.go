package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/ingest"
	"animehub/internal/notifications"
	"animehub/internal/textutil"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingest cycle against AniList",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			return ctx.withLockedStore(cmd.Context(), func(cfg *config.Config, s catalog.Store) error {
				driver, err := ingest.NewFromConfig(cfg, s, notifications.NewService(cfg), logger)
				if err != nil {
					return err
				}
				summary, runErr := driver.Run(cmd.Context())
				if jsonOutput {
					if err := writeJSON(cmd, summary); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), renderIngestSummary(summary, shouldColorize(cmd.OutOrStdout())))
				}
				return runErr
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run summary as JSON")
	return cmd
}

func renderIngestSummary(s ingest.Summary, colorize bool) string {
	lines := renderSectionHeader("Ingest", colorize)
	lines = append(lines,
		renderStatusLine("State", ingestStateKind(s.State), displayIngestState(s.State), colorize),
		renderStatusLine("Run", statusInfo, s.RunID, colorize),
		renderStatusLine("Fetch", statusInfo, fmt.Sprintf("%d page(s), %d entries, stop=%s", s.Pages, s.Fetched, s.Stop), colorize),
		renderStatusLine("Filter", statusInfo, fmt.Sprintf("%d admitted, %d series", s.Admitted, s.Unique), colorize),
		renderStatusLine("Catalog", statusInfo, fmt.Sprintf("%d created, %d advanced, %d refreshed", s.Created, s.Advanced, s.Refreshed), colorize),
	)
	if s.Skipped > 0 {
		lines = append(lines, renderStatusLine("Skipped", statusWarn, fmt.Sprintf("%d series", s.Skipped), colorize))
	}
	if drops := formatCounts(s.Drops); drops != "" {
		lines = append(lines, renderStatusLine("Dropped", statusInfo, drops, colorize))
	}
	if policy := formatCounts(s.PolicyDrops); policy != "" {
		lines = append(lines, renderStatusLine("Policy", statusInfo, policy, colorize))
	}
	if s.FetchError != "" {
		lines = append(lines, renderStatusLine("Fetch error", statusWarn, s.FetchError, colorize))
	}
	if s.Error != "" {
		lines = append(lines, renderStatusLine("Error", statusError, s.Error, colorize))
	}
	lines = append(lines, renderStatusLine("Duration", statusInfo, s.Duration.Round(time.Millisecond).String(), colorize))
	return strings.Join(lines, "\n")
}

func displayIngestState(state ingest.State) string {
	if state == "" {
		return "-"
	}
	return textutil.Title(string(state))
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k, v := range counts {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}
