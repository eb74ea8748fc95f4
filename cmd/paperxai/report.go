// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperxai/internal/config"
	"github.com/pdiddy/paperxai/internal/pipeline"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch, embed, and answer the configured questions",
	Long: `Report refreshes the paper store, embeds the papers that are new in this
run, and answers every question in the config's sections using the three most
similar papers as context. The report is printed to the console and written as
a dated HTML (and optionally Markdown) file under report.output_dir.

Use --skip-fetch to report on the stored current papers, and
--reuse-embeddings to read the cached embedding matrix instead of calling the
embedding API again.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().Bool("skip-fetch", false, "report on the stored current papers without fetching")
	reportCmd.Flags().Bool("reuse-embeddings", false, "reuse the cached embedding matrix when it matches")
	reportCmd.Flags().StringSlice("format", nil, "output formats: console, html, markdown (default: report.formats)")
	reportCmd.Flags().Int("max-papers", 0, "maximum papers to fetch for the report (overrides max_papers)")
	_ = viper.BindPFlag("max_papers", reportCmd.Flags().Lookup("max-papers"))

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := setup(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	skipFetch, _ := cmd.Flags().GetBool("skip-fetch")
	reuse, _ := cmd.Flags().GetBool("reuse-embeddings")
	formats, _ := cmd.Flags().GetStringSlice("format")

	res, err := p.Report(ctx, pipeline.Options{
		SkipFetch:       skipFetch,
		ReuseEmbeddings: reuse,
		Formats:         config.NormalizeFormats(formats),
	})
	if err != nil {
		return err
	}

	for _, path := range res.Paths {
		fmt.Fprintln(os.Stderr, "wrote", path)
	}
	if res.ArchiveID != "" {
		fmt.Fprintln(os.Stderr, "archived as", res.ArchiveID)
	}
	return nil
}
