// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperxai/internal/observability"
	"github.com/pdiddy/paperxai/internal/pipeline"
	"github.com/pdiddy/paperxai/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the report on the configured cron schedule",
	Long: `Schedule stays in the foreground and runs the report command whenever the
cron expression in the config's schedule field fires (default "0 7 * * *").
A run that is still going when the next one is due causes that one to be
skipped. Stop with Ctrl-C.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().String("cron", "", "cron expression (overrides schedule)")
	scheduleCmd.Flags().Bool("skip-fetch", false, "report on stored papers without fetching")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	spec, _ := cmd.Flags().GetString("cron")
	if spec == "" {
		spec = cfg.Schedule
	}
	skipFetch, _ := cmd.Flags().GetBool("skip-fetch")
	logger := observability.NewLogger(cfg.Logging, nil)

	return schedule.Run(ctx, spec, func(ctx context.Context) error {
		p, err := setup(ctx)
		if err != nil {
			return err
		}
		defer p.Close()
		_, err = p.Report(ctx, pipeline.Options{SkipFetch: skipFetch})
		return err
	}, logger)
}
