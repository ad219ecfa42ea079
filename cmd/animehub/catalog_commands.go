package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/logging"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the local catalog",
	}
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogShowCommand(ctx))
	return catalogCmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog records, most recently added first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := make(map[catalog.Status]struct{}, len(statusFlags))
			for _, raw := range statusFlags {
				for _, part := range strings.Split(raw, ",") {
					if strings.TrimSpace(part) == "" {
						continue
					}
					status, err := catalog.ParseStatus(part)
					if err != nil {
						return err
					}
					filter[status] = struct{}{}
				}
			}

			return ctx.withStore(cmd.Context(), func(_ *config.Config, s catalog.Store) error {
				records, err := s.Scan(cmd.Context())
				if err != nil {
					return fmt.Errorf("scan catalog: %w", err)
				}
				records = filterRecords(records, filter)
				sort.SliceStable(records, func(i, j int) bool {
					return records[i].EpisodeAddedAt.After(records[j].EpisodeAddedAt)
				})
				if jsonOutput {
					return writeJSON(cmd, records)
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "Catalog is empty")
					return nil
				}
				fmt.Fprintln(out, renderRecordTable(records, time.Now()))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (RELEASING, FINISHED, ...)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print records as JSON")
	return cmd
}

func newCatalogShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one catalog record by MyAnimeList id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withStore(cmd.Context(), func(_ *config.Config, s catalog.Store) error {
				record, err := s.Get(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("get record: %w", err)
				}
				if record == nil {
					return fmt.Errorf("no catalog record for id %s", id)
				}
				if jsonOutput {
					return writeJSON(cmd, record)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRecordDetail(*record, time.Now(), shouldColorize(cmd.OutOrStdout())))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the record as JSON")
	return cmd
}

func filterRecords(records []catalog.Record, filter map[catalog.Status]struct{}) []catalog.Record {
	if len(filter) == 0 {
		return records
	}
	out := records[:0]
	for _, r := range records {
		if _, ok := filter[r.Status]; ok {
			out = append(out, r)
		}
	}
	return out
}

func renderRecordTable(records []catalog.Record, now time.Time) string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.SecondaryID,
			r.Title(),
			strconv.Itoa(r.LatestEpisode),
			displayStatus(r.Status),
			logging.FormatRelative(r.EpisodeAiredAt, now),
			logging.FormatRelative(r.EpisodeAddedAt, now),
			logging.FormatRelative(r.LastRefreshedAt, now),
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Ep", "Status", "Aired", "Added", "Refreshed"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight},
	)
}

func renderRecordDetail(r catalog.Record, now time.Time, colorize bool) string {
	lines := renderSectionHeader(r.Title(), colorize)
	kind := statusInfo
	if r.Status.IsReleasing() {
		kind = statusOK
	}
	lines = append(lines,
		renderStatusLine("ID", statusInfo, fmt.Sprintf("%s (AniList %d)", r.SecondaryID, r.SeriesID), colorize),
		renderStatusLine("Status", kind, displayStatus(r.Status), colorize),
		renderStatusLine("Episode", statusInfo, episodeLine(r), colorize),
		renderStatusLine("Aired", statusInfo, logging.FormatRelative(r.EpisodeAiredAt, now), colorize),
		renderStatusLine("Added", statusInfo, logging.FormatRelative(r.EpisodeAddedAt, now), colorize),
		renderStatusLine("Refreshed", statusInfo, logging.FormatRelative(r.LastRefreshedAt, now), colorize),
	)
	if r.Series.Format != "" {
		lines = append(lines, renderStatusLine("Format", statusInfo, r.Series.Format, colorize))
	}
	if len(r.Series.Genres) > 0 {
		lines = append(lines, renderStatusLine("Genres", statusInfo, strings.Join(r.Series.Genres, ", "), colorize))
	}
	if r.Series.SiteURL != "" {
		lines = append(lines, renderStatusLine("URL", statusInfo, r.Series.SiteURL, colorize))
	}
	return strings.Join(lines, "\n")
}

func episodeLine(r catalog.Record) string {
	if r.Series.TotalEpisodes > 0 {
		return fmt.Sprintf("%d of %d", r.LatestEpisode, r.Series.TotalEpisodes)
	}
	return strconv.Itoa(r.LatestEpisode)
}
