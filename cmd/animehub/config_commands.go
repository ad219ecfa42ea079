package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"animehub/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check the animehub configuration",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration with the default policy and retention windows",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveInitTarget(targetPath)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Review [policy] and [retention], then run `animehub ingest` once to seed the catalog.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func resolveInitTarget(flagValue string) (string, error) {
	target := strings.TrimSpace(flagValue)
	if target == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	expanded, err := config.ExpandPath(target)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return expanded, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and print the effective engine settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if _, statErr := os.Stat(ctx.configPath); statErr != nil {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			location := "dsn from config/env"
			if cfg.Store.Driver == config.StoreDriverSQLite {
				location = cfg.SQLitePath()
			}
			fmt.Fprintf(out, "Store: %s (%s)\n", cfg.Store.Driver, location)
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, effectiveSettings(cfg), nil))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func effectiveSettings(cfg *config.Config) [][]string {
	budget := "unlimited"
	if cfg.AniList.RequestsPerMinute > 0 {
		budget = strconv.Itoa(cfg.AniList.RequestsPerMinute) + "/min"
	}
	notify := "disabled"
	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		notify = cfg.Notifications.NtfyTopic
	}
	return [][]string{
		{"AniList endpoint", cfg.AniList.BaseURL},
		{"Page size", strconv.Itoa(cfg.AniList.PerPage)},
		{"Request budget", budget},
		{"Recency window", cfg.RecencyWindow().String()},
		{"Retries per page", strconv.Itoa(cfg.Ingest.MaxRetries)},
		{"Max pages", strconv.Itoa(cfg.Ingest.MaxPages)},
		{"Blocked genres", strings.Join(cfg.Policy.BlockedGenres, ", ")},
		{"Allowed formats", strings.Join(cfg.Policy.AllowedFormats, ", ")},
		{"Allowed countries", strings.Join(cfg.Policy.AllowedCountries, ", ")},
		{"Denylisted ids", strconv.Itoa(len(cfg.Retention.DenylistIDs))},
		{"Ingest every", cfg.IngestInterval().String()},
		{"Sweep every", cfg.SweepInterval().String()},
		{"Notifications", notify},
	}
}
